// Package i18n holds the user-facing texts of the bot in Uzbek, English and Russian.
package i18n

import "fmt"

// Supported languages
const (
	LangUzbek   = "uz"
	LangEnglish = "en"
	LangRussian = "ru"

	DefaultLanguage  = LangUzbek
	FallbackLanguage = LangEnglish
)

// Text keys for localization
const (
	KeyGreeting      = "greeting"
	KeyHelp          = "help"
	KeyChooseFormat  = "choose_format"
	KeyButtonVideo   = "button_video"
	KeyButtonAudio   = "button_audio"
	KeyInvalidLink   = "invalid_link"
	KeyUnsupported   = "unsupported_link"
	KeyPlaylistPick  = "playlist_pick"
	KeyPlaylistEmpty = "playlist_empty"
	KeyPlaylistError = "playlist_error"
	KeyQueryExpired  = "query_expired"
	KeyDownloading   = "downloading"
	KeyQueued        = "queued"
	KeyMaintenance   = "maintenance"
	KeyBusy          = "busy"

	KeyStatusStarting = "status_starting"
	KeyStatusProgress = "status_progress"
	KeyStatusSending  = "status_sending"
	KeyDownloadLink   = "download_link"

	KeyErrorTool     = "error_tool"
	KeyErrorSpawn    = "error_spawn"
	KeyErrorTimeout  = "error_timeout"
	KeyErrorCanceled = "error_canceled"
	KeyErrorNotFound = "error_not_found"
	KeyErrorDelivery = "error_delivery"
	KeyErrorTooLarge = "error_too_large"
	KeyErrorGeneral  = "error_general"
)

// Localization resolves text keys for one language. It is immutable after
// construction and safe for concurrent use.
type Localization struct {
	currentLanguage string
	texts           map[string]map[string]string
}

// NewLocalization creates a localization for lang, falling back to Uzbek
// for unknown codes
func NewLocalization(lang string) *Localization {
	l := &Localization{
		currentLanguage: DefaultLanguage,
		texts:           catalog,
	}
	if _, exists := l.texts[lang]; exists {
		l.currentLanguage = lang
	}
	return l
}

// GetText returns localized text for the given key
func (l *Localization) GetText(key string) string {
	if texts, exists := l.texts[l.currentLanguage]; exists {
		if text, found := texts[key]; found {
			return text
		}
	}

	if texts, exists := l.texts[FallbackLanguage]; exists {
		if text, found := texts[key]; found {
			return text
		}
	}

	return key
}

// Textf formats the localized text with args
func (l *Localization) Textf(key string, args ...any) string {
	text := l.GetText(key)
	if len(args) == 0 {
		return text
	}
	return fmt.Sprintf(text, args...)
}

// GetCurrentLanguage returns the current language code
func (l *Localization) GetCurrentLanguage() string {
	return l.currentLanguage
}

// GetAvailableLanguages returns map of available languages with their display names
func GetAvailableLanguages() map[string]string {
	return map[string]string{
		LangUzbek:   "O'zbekcha",
		LangEnglish: "English",
		LangRussian: "Русский",
	}
}
