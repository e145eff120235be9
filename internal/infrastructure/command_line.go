package infrastructure

import "strings"

// characters a POSIX shell would interpret
const shellSpecial = " \t\n\r'\"$`\\!*?[](){}|;<>&~#%"

// quoteArg renders s so that pasting it into a shell yields the same argument.
// Only used for the extractor log; exec never goes through a shell.
func quoteArg(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, shellSpecial) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// commandLine renders binary and args as a copy-pasteable shell command
func commandLine(binary string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, quoteArg(binary))
	for _, arg := range args {
		parts = append(parts, quoteArg(arg))
	}
	return strings.Join(parts, " ")
}
