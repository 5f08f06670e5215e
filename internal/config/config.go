package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations.
type Config struct {
    Env             string // application environment (e.g. "dev", "prod")
    Port            string // HTTP port to listen on
    DBUser          string // database username
    DBPass          string // database password (optional)
    DBHost          string // database host address
    DBPort          string // database port number
    DBName          string // database name
    OAuthClientID   string // client id registered with the OAuth provider
    OAuthClientSec  string // client secret registered with the OAuth provider
    OAuthAuthURL    string // authorization endpoint of the OAuth provider
    OAuthTokenURL   string // token endpoint of the OAuth provider
    OAuthProfileURL string // profile endpoint used to read the user's email
    StateSecret     string // secret used to sign the OAuth state parameter
    SessionTTLHours int    // HTTP session time-to-live in hours
    CookieSecure    bool   // whether session cookies require HTTPS
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  The OAuth endpoint
// URLs default to the 42 intra API so that only credentials have to be
// provided in the common case.
func Load() Config {
    return Config{
        Env:             must("APP_ENV"),
        Port:            must("APP_PORT"),
        DBUser:          must("DB_USER"),
        DBPass:          os.Getenv("DB_PASS"), // empty allowed
        DBHost:          must("DB_HOST"),
        DBPort:          must("DB_PORT"),
        DBName:          must("DB_NAME"),
        OAuthClientID:   must("OAUTH_CLIENT_ID"),
        OAuthClientSec:  must("OAUTH_CLIENT_SECRET"),
        OAuthAuthURL:    getenv("OAUTH_AUTH_URL", "https://api.intra.42.fr/oauth/authorize"),
        OAuthTokenURL:   getenv("OAUTH_TOKEN_URL", "https://api.intra.42.fr/oauth/token"),
        OAuthProfileURL: getenv("OAUTH_PROFILE_URL", "https://api.intra.42.fr/v2/me"),
        StateSecret:     must("STATE_SECRET"),
        SessionTTLHours: envInt("SESSION_TTL_HOURS", 72),
        CookieSecure:    envBool("COOKIE_SECURE", true),
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// getenv returns the value of an environment variable or a default when the
// variable is unset.
func getenv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

// envInt is like getenv but converts the retrieved string into an integer.
// Unparseable values fall back to the default.
func envInt(key string, def int) int {
    v := os.Getenv(key)
    if v == "" {
        return def
    }
    if n, err := strconv.Atoi(v); err == nil {
        return n
    }
    return def
}

// envBool interprets common truthy/falsy spellings of an environment
// variable, falling back to the default for anything unrecognised.
func envBool(key string, def bool) bool {
    switch os.Getenv(key) {
    case "1", "true", "TRUE", "True", "yes", "on":
        return true
    case "0", "false", "FALSE", "False", "no", "off":
        return false
    }
    return def
}
