// Package locale holds the user-visible message catalog shared by the auth
// client, credential validation, and the CLI.
//
// English is the base locale. Keys missing from another locale fall back to it.
package locale

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	LoginFailed    = "auth.login_failed"
	RegisterFailed = "auth.register_failed"
	ProfileFailed  = "auth.profile_failed"

	TitleError = "notice.title_error"
	TitleDone  = "notice.title_done"

	WelcomeBack    = "notice.welcome_back"
	AccountCreated = "notice.account_created"
	SignedOut      = "notice.signed_out"

	InvalidEmail     = "validate.invalid_email"
	PasswordTooShort = "validate.password_too_short"
	PasswordTooLong  = "validate.password_too_long"
	PasswordMismatch = "validate.password_mismatch"

	ProfileHeading = "profile.heading"
	ProfileEmail   = "profile.email"
	ProfileID      = "profile.id"
	NotSignedIn    = "profile.not_signed_in"
)

var supported = []language.Tag{
	language.English,
	language.Russian,
}

var matcher = language.NewMatcher(supported)

var entries = map[language.Tag]map[string]string{
	language.English: {
		LoginFailed:      "Login failed",
		RegisterFailed:   "Registration failed",
		ProfileFailed:    "Failed to fetch profile",
		TitleError:       "Error",
		TitleDone:        "Done!",
		WelcomeBack:      "Welcome back!",
		AccountCreated:   "Account created",
		SignedOut:        "Signed out",
		InvalidEmail:     "Invalid email format",
		PasswordTooShort: "Password must be at least %d characters",
		PasswordTooLong:  "Password must be at most %d characters",
		PasswordMismatch: "Passwords do not match",
		ProfileHeading:   "Profile",
		ProfileEmail:     "Your e-mail",
		ProfileID:        "Your ID",
		NotSignedIn:      "Not signed in",
	},
	language.Russian: {
		LoginFailed:      "Ошибка при входе",
		RegisterFailed:   "Ошибка при регистрации",
		ProfileFailed:    "Ошибка при получении профиля",
		TitleError:       "Ошибка",
		TitleDone:        "Готово!",
		WelcomeBack:      "С возвращением!",
		AccountCreated:   "Аккаунт создан",
		SignedOut:        "Вы вышли из аккаунта",
		InvalidEmail:     "Неверный формат email",
		PasswordTooShort: "Пароль должен содержать больше %d символов",
		PasswordTooLong:  "Пароль должен содержать меньше %d символов",
		PasswordMismatch: "Пароли не совпадают",
		ProfileHeading:   "Профиль",
		ProfileEmail:     "Ваш e-mail",
		ProfileID:        "Ваш ID",
		NotSignedIn:      "Вы не вошли в систему",
	},
}

var messages = mustBuild()

func mustBuild() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, set := range entries {
		for key, msg := range set {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(fmt.Sprintf("locale: register %s/%s: %v", tag, key, err))
			}
		}
	}
	return b
}

// Default returns the base locale.
func Default() language.Tag {
	return language.English
}

// Supported returns a copy of the supported locales.
func Supported() []language.Tag {
	out := make([]language.Tag, len(supported))
	copy(out, supported)
	return out
}

// Match resolves a locale name or Accept-Language style list to the closest
// supported tag. Unknown or empty input resolves to the base locale.
func Match(value string) language.Tag {
	value = strings.TrimSpace(value)
	if value == "" {
		return Default()
	}
	tags, _, err := language.ParseAcceptLanguage(value)
	if err != nil || len(tags) == 0 {
		return Default()
	}
	_, idx, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return Default()
	}
	return supported[idx]
}

// Printer returns a printer bound to the catalog for tag.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(messages))
}

// Text renders key for tag.
func Text(tag language.Tag, key string, args ...any) string {
	return Printer(tag).Sprintf(key, args...)
}
