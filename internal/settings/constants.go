package settings

// Runtime setting keys and their defaults.
const (
	// SiteNameKey is the display name of the association.
	SiteNameKey = "SITE_NAME"
	// DefaultSiteName is the fallback display name.
	DefaultSiteName = "Neighborhood Association"
	// CurrencyKey is the ISO currency code shown next to amounts.
	CurrencyKey = "CURRENCY"
	// DefaultCurrency is the fallback currency.
	DefaultCurrency = "USD"
	// AllowRegistrationKey toggles self-service signup.
	AllowRegistrationKey = "ALLOW_REGISTRATION"
	// DefaultAllowRegistration keeps signup open by default.
	DefaultAllowRegistration = true
)

// Known reports whether key is a recognised setting.
func Known(key string) bool {
	switch key {
	case SiteNameKey, CurrencyKey, AllowRegistrationKey:
		return true
	}
	return false
}
