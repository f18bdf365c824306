// Package scriptgate implements the script-safety gate described in the job
// execution design: a fixed catalog of dangerous regular-expression patterns
// checked against a script's textual contents before it is handed to bash.
//
// This is defense-in-depth, not a sandbox. A determined adversary can bypass
// it — by splitting commands across variables, base64-encoding payloads
// twice, or any number of other obfuscations a static regex scan cannot see
// through. The gate exists to catch the obvious and accidental, not to
// contain a hostile script with unrestricted OS access.
package scriptgate

import (
	"fmt"
	"regexp"
)

// UnsafeScriptError is returned by Check when the script matches a pattern
// in the catalog. Reason is a short human-readable label for the category
// that matched (e.g. "destructive command", "reverse shell construct").
type UnsafeScriptError struct {
	Reason  string
	Pattern string
}

func (e *UnsafeScriptError) Error() string {
	return fmt.Sprintf("unsafe script: %s (matched %s)", e.Reason, e.Pattern)
}

type rule struct {
	reason string
	re     *regexp.Regexp
}

// catalog is built once at package init. Patterns are intentionally broad —
// false positives on a legitimate script are an acceptable cost for a
// best-effort defense-in-depth gate.
var catalog = buildCatalog()

func buildCatalog() []rule {
	group := func(reason string, patterns ...string) []rule {
		rules := make([]rule, 0, len(patterns))
		for _, p := range patterns {
			rules = append(rules, rule{reason: reason, re: regexp.MustCompile(p)})
		}
		return rules
	}

	var rules []rule
	rules = append(rules, group("destructive command",
		`\brm\s+(-\w*r\w*f\w*|-\w*f\w*r\w*)\s+/(\s|$|\*)`,
		`\brm\s+-rf\s+/`,
		`\bmkfs(\.\w+)?\b`,
		`\bdd\s+if=/dev/(zero|urandom)`,
		`\bdd\s+of=/dev/`,
	)...)
	rules = append(rules, group("sensitive path access",
		`/etc/passwd\b`,
		`/etc/shadow\b`,
		`/etc/sudoers\b`,
		`/proc/`,
		`/sys/`,
		`~/\.ssh/`,
		`/root/`,
		`/var/run/docker\.sock`,
	)...)
	rules = append(rules, group("network tool",
		`\bcurl\b`,
		`\bwget\b`,
		`\bnc\b`,
		`\bncat\b`,
		`\bsocat\b`,
		`\bssh\b`,
		`\bscp\b`,
		`\bsftp\b`,
		`\btelnet\b`,
		`\brsync\b`,
	)...)
	rules = append(rules, group("reverse shell construct",
		`/dev/tcp/`,
		`/dev/udp/`,
	)...)
	rules = append(rules, group("privilege escalation",
		`\bsudo\b`,
		`\bsu\s`,
		`\bchmod\s+([0-7]*[4-7][0-7]{3}|u\+s|\+s)\b`,
		`\bchown\b`,
	)...)
	rules = append(rules, group("container/system escape",
		`\bchroot\b`,
		`\bnsenter\b`,
		`\bunshare\b`,
		`\bmount\b`,
		`\bumount\b`,
		`\bdocker\b`,
		`\bkubectl\b`,
	)...)
	rules = append(rules, group("kernel/system manipulation",
		`\bsysctl\b`,
		`\bmodprobe\b`,
		`\binsmod\b`,
		`\brmmod\b`,
		`\biptables\b`,
		`\bnftables\b`,
	)...)
	rules = append(rules, group("obfuscated execution",
		`base64\s+(-d|--decode)[^|]*\|\s*(ba)?sh\b`,
		`\beval\b`,
		`\b(python|perl|ruby)[0-9.]*\s+-[a-zA-Z]*[ce]\b`,
	)...)
	rules = append(rules, group("persistence mechanism",
		`\bcrontab\b`,
		`/etc/cron`,
		`\bsystemctl\b`,
		`\bservice\s+\w+\s+(start|enable)\b`,
		`\bat\s+\d`,
	)...)
	rules = append(rules, group("fork bomb",
		`:\(\)\s*\{\s*:\|:\s*&\s*\}\s*;\s*:`,
	)...)
	rules = append(rules, group("resource exhaustion / crypto miner",
		`\bstress(-ng)?\b`,
		`\bxmrig\b`,
		`\bminerd\b`,
		`\bcpuminer\b`,
	)...)
	rules = append(rules, group("environment secret reference",
		`\$\{?AWS_[A-Z_]*`,
		`\$\{?SECRET\w*`,
		`\$\{?TOKEN\w*`,
		`\$\{?PASSWORD\w*`,
		`\$\{?API_KEY\w*`,
	)...)
	return rules
}

// Check scans script against the dangerous-pattern catalog and returns the
// first match as an *UnsafeScriptError, or nil if nothing matched.
func Check(script string) error {
	for _, r := range catalog {
		if r.re.MatchString(script) {
			return &UnsafeScriptError{Reason: r.reason, Pattern: r.re.String()}
		}
	}
	return nil
}
