package constvars

const (
	MethodGet     = "GET"
	MethodHead    = "HEAD"
	MethodPost    = "POST"
	MethodPut     = "PUT"
	MethodPatch   = "PATCH"
	MethodDelete  = "DELETE"
	MethodOptions = "OPTIONS"
)

const (
	MIMETextPlain       = "text/plain"
	MIMEApplicationJSON = "application/json"
	MIMEApplicationForm = "application/x-www-form-urlencoded"
	MIMEOctetStream     = "application/octet-stream"
	MIMEMultipartForm   = "multipart/form-data"

	MIMETextPlainCharsetUTF8       = "text/plain; charset=utf-8"
	MIMEApplicationJSONCharsetUTF8 = "application/json; charset=utf-8"
)

const (
	StatusOK        = 200
	StatusCreated   = 201
	StatusAccepted  = 202
	StatusNoContent = 204

	StatusMovedPermanently  = 301
	StatusFound             = 302
	StatusNotModified       = 304
	StatusTemporaryRedirect = 307
	StatusPermanentRedirect = 308

	StatusBadRequest            = 400
	StatusUnauthorized          = 401
	StatusPaymentRequired       = 402
	StatusForbidden             = 403
	StatusNotFound              = 404
	StatusMethodNotAllowed      = 405
	StatusNotAcceptable         = 406
	StatusRequestTimeout        = 408
	StatusConflict              = 409
	StatusGone                  = 410
	StatusPreconditionFailed    = 412
	StatusRequestEntityTooLarge = 413
	StatusUnsupportedMediaType  = 415
	StatusUnprocessableEntity   = 422
	StatusPreconditionRequired  = 428
	StatusTooManyRequests       = 429

	StatusInternalServerError = 500
	StatusNotImplemented      = 501
	StatusBadGateway          = 502
	StatusServiceUnavailable  = 503
	StatusGatewayTimeout      = 504
)

const (
	HeaderAuthorization               = "Authorization"
	HeaderCacheControl                = "Cache-Control"
	HeaderContentDisposition          = "Content-Disposition"
	HeaderContentLength               = "Content-Length"
	HeaderContentType                 = "Content-Type"
	HeaderAccept                      = "Accept"
	HeaderOrigin                      = "Origin"
	HeaderUserAgent                   = "User-Agent"
	HeaderLocation                    = "Location"
	HeaderRetryAfter                  = "Retry-After"
	HeaderXForwardedFor               = "X-Forwarded-For"
	HeaderAccessControlAllowHeaders   = "Access-Control-Allow-Headers"
	HeaderAccessControlAllowMethods   = "Access-Control-Allow-Methods"
	HeaderAccessControlAllowOrigin    = "Access-Control-Allow-Origin"
	HeaderAccessControlExposeHeaders  = "Access-Control-Expose-Headers"
	HeaderAccessControlMaxAge         = "Access-Control-Max-Age"
	HeaderAccessControlRequestHeaders = "Access-Control-Request-Headers"
	HeaderAccessControlRequestMethod  = "Access-Control-Request-Method"
	HeaderXRequestID                  = "X-Request-ID"
	HeaderXRequestedWith              = "X-Requested-With"
	HeaderXAPIKey                     = "X-API-Key"
	HeaderXTenantID                   = "X-Tenant-ID"
)
