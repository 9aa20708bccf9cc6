package dynamo

// DynamoDB attribute names used in key, condition and update expressions.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldEmail            = "email"
	fieldUsername         = "username"
	fieldDomain           = "domain"
	fieldUniqueKey        = "unique_key"
	fieldOwner            = "owner"
	fieldVerificationCode = "verification_code"
	fieldExpiresAt        = "expires_at"
	fieldWalletAddress    = "wallet_address"
	fieldUpdatedAt        = "updated_at"
)

const usernameIndex = "username-index"

// Guard key prefixes in the unique_keys table.
const (
	guardCredentialUsername = "credential-username#"
	guardDomainUsername     = "domain-username#"
)
