package sandbox

import (
	"os"
	"strings"
)

// sensitiveEnvPrefixes are environment variable prefixes that stay hidden
// from scripts even when a policy grants env access. Entries here cover all
// variables with these prefixes; for exact-name matching see sensitiveEnvExact.
var sensitiveEnvPrefixes = []string{
	"OPENAI_",
	"ANTHROPIC_",
	"AWS_SECRET",
	"AWS_SESSION_TOKEN",
	"SLACK_TOKEN",
	"SLACK_BOT_TOKEN",
	"DISCORD_TOKEN",
	"TELEGRAM_BOT_TOKEN",
	"GITHUB_TOKEN",
	"GH_TOKEN",
	"GITLAB_TOKEN",
	"SMTP_PASSWORD",
}

// sensitiveEnvExact are environment variable names hidden by exact match.
// DATABASE_URL and DB_PASSWORD are exact-only to avoid over-blocking
// variables like DB_PORT or DATABASE_HOST which share the same prefix.
var sensitiveEnvExact = map[string]struct{}{
	"AWS_SECRET_ACCESS_KEY": {},
	"DATABASE_URL":          {},
	"DB_PASSWORD":           {},
	"REDIS_PASSWORD":        {},
}

// Env looks up an environment variable on behalf of a script. The env
// capability must be granted, and credential-bearing variables are reported
// as absent regardless of the grant — allow_env widens visibility, it does
// not hand out the host's secrets.
func (g *Grant) Env(name string) (string, bool, error) {
	if err := g.CheckEnv(name); err != nil {
		return "", false, err
	}
	if isSensitiveEnvVar(name) {
		return "", false, nil
	}
	value, ok := os.LookupEnv(name)
	return value, ok, nil
}

// isSensitiveEnvVar checks a variable name against the known sensitive
// prefixes and exact names.
func isSensitiveEnvVar(name string) bool {
	upper := strings.ToUpper(name)

	if _, ok := sensitiveEnvExact[upper]; ok {
		return true
	}

	for _, prefix := range sensitiveEnvPrefixes {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}

	return false
}
