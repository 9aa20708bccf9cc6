package domain

import "time"

// Storefront templates a DomainConfig may select.
const (
	TemplateSimple   = "simple"
	TemplateAdvanced = "advanced"
)

// DomainConfig binds a custom domain to a user's swap widget configuration.
// PK: domain. GSI username-index for lookups by owner.
type DomainConfig struct {
	Domain     string                 `json:"domain" dynamodbav:"domain"`
	DomainID   string                 `json:"id" dynamodbav:"domain_id"`
	Username   string                 `json:"username" dynamodbav:"username"`
	SwapConfig map[string]interface{} `json:"swapConfig" dynamodbav:"swap_config"`
	Template   string                 `json:"template" dynamodbav:"template"`
	CreatedAt  time.Time              `json:"created" dynamodbav:"created_at"`
}

type RegisterDomainRequest struct {
	Username   string                 `json:"username" validate:"required,username"`
	Domain     string                 `json:"domain" validate:"required,domainname"`
	SwapConfig map[string]interface{} `json:"swapConfig" validate:"required"`
	Template   string                 `json:"template" validate:"omitempty,oneof=simple advanced"`
}
