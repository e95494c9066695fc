package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client.
var UserAgent = "Go-Horoscope/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName           = "Go Horoscope"
	AppID             = "cz.cislenka.go-horoscope"
	KeyringService    = "cz.cislenka.go-horoscope"
	CLIName           = "horoscope-cli"
	LocalhostBindAddr = "127.0.0.1"
	LogFileName       = "app.log"
	CLILogFileName    = "cli.log"
	DefaultLocale     = "cs"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
	// ExitCodeInvalid reports input rejected before any request was sent.
	ExitCodeInvalid = 2
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	// Used for logs and saved documents.
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700
)

// -----------------------------------------------------------------------------
// CLI Flags, Environment & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagVersion      = "version"
	FlagDebug        = "debug"
	FlagDescVersion  = "Show application version and exit"
	FlagDescDebug    = "Enable debug logging to stdout"
	MsgVersionOutput = "%s version %s (%s/%s)\n"

	FlagConfig    = "config"
	FlagEndpoint  = "endpoint"
	FlagUser      = "user"
	FlagName      = "name"
	FlagDOB       = "dob"
	FlagCode      = "code"
	FlagType      = "type"
	FlagOutputDir = "out"
	FlagNoPrompt  = "no-prompt"

	FlagDescConfig    = "Path to the YAML settings file"
	FlagDescEndpoint  = "Base URL of the horoscope service"
	FlagDescUser      = "HTTP Basic auth username (password from keyring or " + EnvPassword + ")"
	FlagDescName      = "Name of the person"
	FlagDescDOB       = "Date of birth (DD.MM.YYYY)"
	FlagDescCode      = "Access code"
	FlagDescType      = "Horoscope type (HoroscopeBasic or HoroscopeProfi)"
	FlagDescOutputDir = "Directory where the PDF is saved"
	FlagDescNoPrompt  = "Never prompt for missing fields"

	CmdGenerate      = "generate"
	CmdStatus        = "status"
	CmdLogin         = "login"
	CmdVersion       = "version"
	CmdDescRoot      = "Generate horoscope PDFs from the command line"
	CmdDescGenerate  = "Validate the form fields, request a horoscope and save the PDF"
	CmdDescStatus    = "Check that the horoscope service is reachable"
	CmdDescLogin     = "Store the service password in the system keyring"
	CmdDescVersion   = "Print the version"
	MsgStatusOK      = "%s: ok\n"
	MsgSavedTo       = "%s\n"
	MsgPasswordSaved = "Password stored for %s\n"
	FormatNotifLine  = "[%s] %s\n"
	PromptPassword   = "Password for %s"

	EnvPassword          = "HOROSCOPE_PASSWORD"
	DefaultCLIConfigFile = "horoscope.yaml"
	DefaultOutputDir     = "."
)

// -----------------------------------------------------------------------------
// UI Constants & Preferences
// -----------------------------------------------------------------------------

const (
	MainWindowWidth     = 520
	MainWindowHeight    = 560
	SettingsWindowWidth = 520

	// Preference Keys
	PrefEndpointURL   = "endpoint_url"
	PrefUsername      = "username"
	PrefHoroscopeType = "horoscope_type"
	PrefLastRun       = "last_run_version"

	PlaceholderURL = "https://..."
	PlaceholderDOB = "DD.MM.YYYY"

	ExtVCF   = ".vcf"
	ExtVCard = ".vcard"

	// Message catalog (embedded, fixed locale)
	LocalesDir = "locales"
	LocaleFile = "locales/active.cs.json"

	LayoutColumnsDouble = 2
)

// -----------------------------------------------------------------------------
// Translation Keys (message catalog)
// -----------------------------------------------------------------------------

const (
	TKeyWinTitle     = "win_title"
	TKeyWinSettings  = "win_settings_title"
	TKeyLblName      = "lbl_name"
	TKeyLblDOB       = "lbl_dob"
	TKeyLblCode      = "lbl_code"
	TKeyLblType      = "lbl_type"
	TKeyHintDOB      = "hint_dob"
	TKeyTypeBasic    = "type_basic"
	TKeyTypeProfi    = "type_profi"
	TKeyBtnSubmit    = "btn_submit"
	TKeyBtnReset     = "btn_reset"
	TKeyBtnDownload  = "btn_download"
	TKeyBtnImport    = "btn_import"
	TKeyBtnSettings  = "btn_settings"
	TKeyBtnSave      = "btn_save"
	TKeyBtnCancel    = "btn_cancel"
	TKeyBtnTest      = "btn_test_connection"
	TKeyLblURL       = "lbl_url"
	TKeyHelpURL      = "help_url"
	TKeyLblUser      = "lbl_user"
	TKeyLblPass      = "lbl_pass"
	TKeyLblServer    = "lbl_server"
	TKeyLblDefaults  = "lbl_defaults"
	TKeyLblFooter    = "lbl_footer"
	TKeyStatusIdle   = "status_idle"
	TKeyStatusBusy   = "status_submitting"
	TKeyStatusDone   = "status_success"
	TKeyStatusFailed = "status_failed"

	// Inline field errors
	TKeyErrNameRequired = "err_name_required"
	TKeyErrNameShort    = "err_name_short"
	TKeyErrNameLong     = "err_name_long"
	TKeyErrDOBRequired  = "err_dob_required"
	TKeyErrDOBInvalid   = "err_dob_invalid"
	TKeyErrCodeRequired = "err_code_required"
	TKeyErrCodeShort    = "err_code_short"
	TKeyErrURLInvalid   = "err_url_invalid"

	// Field-level warnings (on focus lost)
	TKeyWarnNameRequired = "warn_name_required"
	TKeyWarnNameShort    = "warn_name_short"
	TKeyWarnNameLong     = "warn_name_long"
	TKeyWarnDOBRequired  = "warn_dob_required"
	TKeyWarnDOBInvalid   = "warn_dob_invalid"
	TKeyWarnCodeRequired = "warn_code_required"
	TKeyWarnCodeShort    = "warn_code_short"

	// Notifications
	TKeyNotifMissing    = "notif_missing_fields" // Requires Fields
	TKeyNotifSuccess    = "notif_success"
	TKeyNotifZodiac     = "notif_zodiac" // Requires Sign, Number
	TKeyNotifHealthOK   = "notif_health_ok"
	TKeyNotifHealthFail = "notif_health_fail"
	TKeyNotifImported   = "notif_imported" // Requires Name
	TKeyNotifImportFail = "notif_import_fail"
	TKeyErrDownload     = "err_download"
	TKeyErrServer       = "err_object_server"
	TKeyErrGeneration   = "err_generation"
	TKeyErrUnknown      = "err_unknown"

	// TKeyZodiacPrefix is joined with the lower-case sign identifier.
	TKeyZodiacPrefix = "zodiac_"
)

// -----------------------------------------------------------------------------
// Fallback Messages (fixed locale, used when the catalog misses a key)
// -----------------------------------------------------------------------------

const (
	FallbackLblName = "Jméno"
	FallbackLblDOB  = "Datum narození"
	FallbackLblCode = "Přístupový kód"

	FallbackErrNameRequired = "Jméno je povinné."
	FallbackErrNameShort    = "Jméno musí mít alespoň 2 znaky."
	FallbackErrNameLong     = "Jméno je příliš dlouhé (max 50 znaků)."
	FallbackErrDOBRequired  = "Datum narození je povinné."
	FallbackErrDOBInvalid   = "Zadejte platné datum narození ve formátu DD.MM.YYYY."
	FallbackErrCodeRequired = "Přístupový kód je povinný."
	FallbackErrCodeShort    = "Přístupový kód je příliš krátký."

	FallbackWarnNameRequired = "Prosím zadejte Vaše jméno"
	FallbackWarnNameShort    = "Jméno je příliš krátké"
	FallbackWarnNameLong     = "Jméno je příliš dlouhé"
	FallbackWarnDOBRequired  = "Prosím zadejte Vaše datum narození"
	FallbackWarnDOBInvalid   = "Datum je neplatné nebo v budoucnosti"
	FallbackWarnCodeRequired = "Prosím zadejte přístupový kód"
	FallbackWarnCodeShort    = "Přístupový kód je příliš krátký"

	FallbackNotifMissing  = "Prosím vyplňte povinná pole: %s"
	FallbackNotifSuccess  = "Váš horoskop byl úspěšně vygenerován! 🎉"
	FallbackNotifZodiac   = "Generuji horoskop pro znamení %s (astrologické číslo %d)."
	FallbackErrGeneration = "Chyba při generování horoskopu."
	FallbackErrUnknown    = "Došlo k neznámé chybě. Prosím zkuste znovu."
)

// -----------------------------------------------------------------------------
// Validation Rules
// -----------------------------------------------------------------------------

const (
	NameMinLen = 2
	NameMaxLen = 50
	CodeMinLen = 3

	// Birth year bounds, both exclusive.
	// TODO: MaxBirthYearExclusive rejects every birth year from 2025 on; derive it from the clock once the service accepts newer dates.
	MinBirthYearExclusive = 1900
	MaxBirthYearExclusive = 2025

	DOBPattern    = `^(\d{2})\.(\d{2})\.(\d{4})$`
	DateFormatDOB = "02.01.2006"

	// FieldListSeparator joins field names in the combined warning.
	FieldListSeparator = ", "
	// DetailSeparator joins the messages of a structured server error list.
	DetailSeparator = ", "
)

// -----------------------------------------------------------------------------
// vCard Import
// -----------------------------------------------------------------------------

const (
	VCardBDAY = "BDAY"
	VCardFN   = "FN"

	// Accepted BDAY layouts. Truncated dates (--MM-DD) cannot fill the form.
	DateFormatFullDash  = "2006-01-02"
	DateFormatFullBasic = "20060102"
	DateFormatRFC3339   = time.RFC3339
	DateFormatFullT     = "2006-01-02T15:04:05Z"
)

// -----------------------------------------------------------------------------
// Horoscope Types
// -----------------------------------------------------------------------------

const (
	HoroscopeTypeBasic   = "HoroscopeBasic"
	HoroscopeTypeProfi   = "HoroscopeProfi"
	DefaultHoroscopeType = HoroscopeTypeBasic
)

// -----------------------------------------------------------------------------
// Notifications & Progress
// -----------------------------------------------------------------------------

const (
	NotifDurationSuccess = 5000 * time.Millisecond
	NotifDurationError   = 6000 * time.Millisecond
	NotifDurationWarning = 5000 * time.Millisecond
	NotifDurationInfo    = 4000 * time.Millisecond

	ProgressTickInterval = 500 * time.Millisecond
	ProgressCeiling      = 90.0
	ProgressComplete     = 100.0
	// ProgressStepDivisor scales the remaining distance into the maximum step (15 at 0%).
	ProgressStepDivisor = 6.0
)

// -----------------------------------------------------------------------------
// Artifacts
// -----------------------------------------------------------------------------

const (
	FormatArtifactName = "horoscope_%s_%s.pdf"
	DateFormatFilename = "2006-01-02"
	FilenameReplaceSep = "_"
	ObjectURLTTL       = 2 * time.Minute
	ObjectServerPort   = "0"
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	DefaultEndpoint     = "http://localhost:7777"
	RouteGenerate       = "/api/horoscope/horoscope-pdf"
	RouteHealth         = "/status/health"
	RouteObjects        = "/objects/"
	HealthStatusOK      = "ok"
	HealthTimeout       = 10 * time.Second
	ShutdownTimeout     = 5 * time.Second
	ServerReadTimeout   = 10 * time.Second
	ServerWriteTimeout  = 30 * time.Second
	ServerIdleTimeout   = 60 * time.Second
	AllowedMethods      = "GET, HEAD"
	MaxHTTPResponseSize = 64 * 1024 * 1024 // 64MB
	MaxErrorBodySize    = 64 * 1024
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	AddrSeparator       = ":"
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType        = "Content-Type"
	HeaderContentDisposition = "Content-Disposition"
	HeaderContentLength      = "Content-Length"
	HeaderCacheControl       = "Cache-Control"
	HeaderAllow              = "Allow"
	HeaderAccept             = "Accept"
	HeaderXContentType       = "X-Content-Type-Options"
	HeaderUserAgent          = "User-Agent"

	MimeJSON         = "application/json"
	MimePDF          = "application/pdf"
	MimeNoSniff      = "nosniff"
	CacheControlNone = "no-store"

	// FormatAttachment expects an already percent-encoded filename.
	FormatAttachment = "attachment; filename*=UTF-8''%s"
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrEndpointEmpty    = "configuration error: endpoint URL is empty"
	ErrInvalidURL       = "invalid URL structure"
	ErrProtocol         = "unsupported protocol scheme (http/https only)"
	ErrEncodeRequest    = "failed to encode request payload"
	ErrCreateRequest    = "failed to create request"
	ErrNetwork          = "network error during request"
	ErrReadBody         = "failed to read response body"
	ErrBodyTooLarge     = "response body exceeds size limit"
	ErrServerStatus     = "server returned error status"
	ErrHealthStatus     = "service reported unhealthy status"
	ErrValidation       = "form validation failed"
	ErrInFlight         = "a submission is already in progress"
	ErrNoArtifact       = "no generated document available"
	ErrSinkMissing      = "internal error: artifact sink is not initialized"
	ErrServerNotReady   = "object server is not listening"
	ErrServerStartup    = "server startup failed"
	ErrServerShutdown   = "server shutdown failed"
	ErrOpenURL          = "failed to open object URL"
	ErrSaveArtifact     = "failed to save document"
	ErrOutputDir        = "could not create output directory"
	ErrVCardEmpty       = "no contact found in vCard stream"
	ErrDateParse        = "unable to parse date"
	ErrLogFile          = "failed to open log file"
	ErrCacheDir         = "could not determine user cache dir"
	ErrCreateDir        = "could not create app cache dir"
	ErrAppFailed        = "application failed unexpectedly"
	ErrWriteResp        = "failed to write response body"
	ErrLocalesAccess    = "failed to access embedded locales"
	ErrLocaleLoad       = "failed to load locale file"
	ErrSettingsLoad     = "failed to load settings file"
	ErrSettingsParse    = "failed to parse settings file"
	ErrHoroscopeType    = "unknown horoscope type"
	ErrPromptAborted    = "prompt aborted"
	ErrKeyringSave      = "failed to save credentials to keyring"
	ErrPasswordNotFound = "password retrieval failed (might be empty)"
	ErrUserRequired     = "a username is required (--user or settings file)"
	ErrNotInteractive   = "missing fields and prompting is disabled"
	ErrPasswordEmpty    = "password must not be empty"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgNotFound     = "Not Found"
	HTTPMsgMethodNotAll = "Method Not Allowed"
)

// -----------------------------------------------------------------------------
// Log Messages
// -----------------------------------------------------------------------------

const (
	MsgAppStarting     = "Starting application"
	MsgAppStop         = "Application stopped gracefully"
	MsgCtxCancel       = "Context cancelled, shutting down UI"
	MsgLogWarning      = "Warning: %s at %s: %v\n"
	MsgServerListen    = "HTTP server listening"
	MsgServerStop      = "Shutting down HTTP server..."
	MsgObjectCreated   = "Object URL created"
	MsgObjectServed    = "Object URL served and revoked"
	MsgObjectRevoked   = "Object URL revoked"
	MsgLocaleSkip      = "Skipping non-locale file"
	MsgLocaleLoaded    = "Locale loaded successfully"
	MsgTransMissing    = "Missing translation key"
	MsgValidationFail  = "Form validation failed"
	MsgSubmitStart     = "Submitting horoscope request"
	MsgSubmitSuccess   = "Horoscope generated successfully"
	MsgSubmitFailed    = "Horoscope generation failed"
	MsgSubmitBusy      = "Submission ignored, another one is in flight"
	MsgFormReset       = "Form reset"
	MsgRequestSent     = "Sending request"
	MsgResponseError   = "Server returned error status"
	MsgResponseOK      = "Document received"
	MsgDetailParse     = "Error body is not a structured detail"
	MsgDownloadNone    = "No PDF available for download"
	MsgDownloadDone    = "PDF offered for download"
	MsgNotifEnqueued   = "Notification enqueued"
	MsgNotifRemoved    = "Notification removed"
	MsgProgressStart   = "Progress simulation started"
	MsgProgressStop    = "Progress simulation stopped"
	MsgHealthCheck     = "Checking service health"
	MsgSavingPrefs     = "Saving preferences"
	MsgImportedContact = "Contact imported from vCard"
	MsgSkippedCard     = "Skipping malformed vCard"
	MsgSkippedDate     = "Skipping invalid date format"
	MsgSettingsLoaded  = "Settings loaded"
	MsgOpeningSettings = "Opening settings window"
	MsgImportFailed    = "vCard import failed"
	MsgDownloadFailed  = "PDF delivery failed"
	MsgHealthOK        = "Service is healthy"
	MsgHealthFailed    = "Service health check failed"
	MsgDocumentSaved   = "Document saved"
	MsgPromptField     = "Prompting for missing field"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyURL       = "url"
	LogKeyStatus    = "status_code"
	LogKeyFile      = "file"
	LogKeyKey       = "key"
	LogKeyUser      = "user"
	LogKeyID        = "id"
	LogKeyKind      = "kind"
	LogKeyFields    = "fields"
	LogKeyType      = "horoscope_type"
	LogKeyProgress  = "progress"
	LogKeySizeBytes = "size_bytes"
	LogKeyFilename  = "filename"
	LogKeyCount     = "count"
	LogKeyValue     = "value"
	LogKeyDuration  = "duration_ms"
	LogKeyPath      = "path"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyCommit  = "commit"
	LogKeyDate    = "date"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompUI         = "ui"
	CompUISet      = "ui_settings"
	CompController = "controller"
	CompNotify     = "notifications"
	CompProgress   = "progress"
	CompClient     = "client"
	CompArtifact   = "artifact"
	CompServer     = "server"
	CompImport     = "import"
	CompMain       = "main"
	CompCLI        = "cli"
	CompI18n       = "i18n"
)
