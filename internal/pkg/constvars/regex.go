package constvars

const (
	RegexEmail           = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	RegexAlphanumeric    = `^[a-zA-Z0-9]+$`
	RegexNumeric         = `^\d+$`
	RegexURL             = `^(http|https):\/\/[^\s$.?#].[^\s]*$`
	RegexDateYYYYMMDD    = `^\d{4}-\d{2}-\d{2}$`
	RegexDateTimeISO8601 = `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2})$`

	// RegexUUIDCanonical matches the hyphenated 8-4-4-4-12 form only. Brace,
	// URN and compact encodings are rejected on purpose.
	RegexUUIDCanonical = `^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`

	// RegexVerificationCode matches the printed code format, e.g. AEGIS-7GQ2-XJ4M-P9RY.
	RegexVerificationCode = `^AEGIS(-[23456789ABCDEFGHJKLMNPQRSTUVWXYZ]{4}){3}$`
)
