package detectors

// builtins is ordered most specific first: when two signatures report the
// same match on the same line the earlier one wins.
var builtins = []Pattern{
	// Cloud providers
	single("aws-access-key", "aws-access-key", "AWS access key ID", 0.95,
		`\b(?:A3T[A-Z0-9]|AKIA|ASIA|ABIA|ACCA)[A-Z0-9]{16}\b`),
	valueOf("aws-secret-key", "aws-secret-key", "AWS secret access key", 0.9,
		`(?i)aws[_.-]?secret[_.-]?(?:access[_.-]?)?key["'\s]*[:=]+\s*["']?([A-Za-z0-9/+]{40})`),
	valueOf("azure-storage-key", "azure-storage-key", "Azure storage account key", 0.9,
		`AccountKey=([A-Za-z0-9+/]{86}==)`),
	single("google-api-key", "google-api-key", "Google API key", 0.9,
		`\bAIza[0-9A-Za-z_-]{35}`),
	single("digitalocean-token", "digitalocean-token", "DigitalOcean access token", 0.95,
		`\bdo[por]_v1_[a-f0-9]{64}\b`),

	// Source hosting and package registries
	single("github-token", "github-token", "GitHub classic token", 0.95,
		`\bgh[pousr]_[A-Za-z0-9]{36,255}\b`),
	single("github-fine-grained-token", "github-token", "GitHub fine-grained personal access token", 0.95,
		`\bgithub_pat_[A-Za-z0-9_]{50,255}\b`),
	single("gitlab-token", "gitlab-token", "GitLab personal access token", 0.95,
		`\bglpat-[A-Za-z0-9_-]{20,}`),
	single("npm-token", "npm-token", "npm access token", 0.9,
		`\bnpm_[A-Za-z0-9]{36}\b`),
	single("pypi-token", "pypi-token", "PyPI upload token", 0.95,
		`\bpypi-AgEIcHlwaS5vcmc[A-Za-z0-9_-]{50,}`),

	// Messaging and SaaS
	single("slack-webhook", "slack-webhook", "Slack incoming webhook URL", 0.95,
		`https://hooks\.slack\.com/services/T[A-Za-z0-9_]+/B[A-Za-z0-9_]+/[A-Za-z0-9_]+`),
	single("slack-token", "slack-token", "Slack API token", 0.9,
		`\bxox[abposr]-[A-Za-z0-9-]{10,}`),
	single("stripe-key", "stripe-key", "Stripe secret or restricted key", 0.95,
		`\b(?:sk|rk)_(?:live|test)_[A-Za-z0-9]{16,}\b`),
	single("sendgrid-api-key", "sendgrid-api-key", "SendGrid API key", 0.95,
		`\bSG\.[A-Za-z0-9_-]{22}\.[A-Za-z0-9_-]{43}`),
	single("twilio-api-key", "twilio-api-key", "Twilio API key SID", 0.7,
		`\bSK[0-9a-fA-F]{32}\b`),
	single("mailgun-api-key", "mailgun-api-key", "Mailgun API key", 0.75,
		`\bkey-[0-9a-zA-Z]{32}\b`),
	single("shopify-token", "shopify-token", "Shopify access token", 0.95,
		`\bshp(?:at|ca|pa|ss)_[a-fA-F0-9]{32}\b`),
	single("telegram-bot-token", "telegram-bot-token", "Telegram bot token", 0.8,
		`\b\d{8,10}:AA[A-Za-z0-9_-]{33}`),

	// AI providers; anthropic precedes the broader sk- rule
	single("anthropic-api-key", "anthropic-api-key", "Anthropic API key", 0.95,
		`\bsk-ant-(?:api|admin)\d{2}-[A-Za-z0-9_-]{80,}`),
	single("openai-api-key", "openai-api-key", "OpenAI API key", 0.8,
		`\bsk-(?:proj-|svcacct-)?[A-Za-z0-9_-]{32,}`),
	single("huggingface-token", "huggingface-token", "Hugging Face access token", 0.85,
		`\bhf_[A-Za-z0-9]{34,}\b`),

	// Generic token formats
	single("jwt", "jwt", "JSON Web Token", 0.8,
		`\beyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
	catchAll("bearer-token", "bearer-token", "Bearer token in an authorization header", 0.7,
		`(?i)\bbearer\s+([A-Za-z0-9_\-.=~+/]{20,})`),
	catchAll("basic-auth", "basic-auth", "Basic authorization credentials", 0.7,
		`(?i)\bbasic\s+([A-Za-z0-9+/]{16,}={0,2})`),
	block("private-key", "private-key", "PEM encoded private key block", 0.99,
		`-----BEGIN (?:[A-Z0-9]+ )*PRIVATE KEY(?: BLOCK)?-----[\s\S]*?-----END (?:[A-Z0-9]+ )*PRIVATE KEY(?: BLOCK)?-----`),
	single("database-url", "database-url", "Database connection URL with embedded credentials", 0.9,
		`\b(?:postgres(?:ql)?|mysql|mongodb(?:\+srv)?|rediss?|amqps?|mssql|sqlserver)://[^\s:/@'"]+:[^\s@'"]+@[^\s'"]+`),

	// Catch-alls
	catchAll("generic-password", "generic-password", "Password assigned to a quoted literal", 0.6,
		`(?i)(?:\b|_)(?:password|passwd|pwd)["']?\s*[:=]\s*["']([^"'\s]{8,})["']`),
	catchAll("generic-secret", "generic-secret", "Secret assigned to a quoted literal", 0.5,
		`(?i)(?:\b|_)(?:secret|api[_-]?key|access[_-]?token|auth[_-]?token|client[_-]?secret)["']?\s*[:=]\s*["']([^"'\s]{16,})["']`),
}
