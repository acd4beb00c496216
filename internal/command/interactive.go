package command

import "strings"

// interactivePrefixes are commands that hold the terminal open and stream
// output until interrupted. They run on the streaming path instead of the
// collect-and-return path.
var interactivePrefixes = []string{
	"ping",
	"traceroute",
	"telnet",
	"nc",
	"netcat",
	"tail -f",
	"watch",
	"top",
	"htop",
	"iotop",
	"tcpdump",
	"wireshark",
	"nmap",
}

// sshArgFlags are ssh client flags that consume the following argument, so
// the host detection below can skip over them.
var sshArgFlags = map[string]bool{
	"-p": true,
	"-i": true,
	"-l": true,
	"-o": true,
	"-F": true,
	"-J": true,
}

// IsInteractive reports whether a command line needs streaming execution.
// ssh is interactive only when it opens a login session, that is, when no
// remote command follows the host.
func IsInteractive(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	fields := strings.Fields(line)
	if fields[0] == "ssh" {
		return sshIsLoginSession(fields[1:])
	}

	for _, prefix := range interactivePrefixes {
		if line == prefix || strings.HasPrefix(line, prefix+" ") {
			return true
		}
	}

	return false
}

// sshIsLoginSession walks the ssh arguments: the first non-flag token is the
// host, and anything after it is a remote command, which makes the
// invocation non-interactive.
func sshIsLoginSession(args []string) bool {
	hostSeen := false

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") {
			if sshArgFlags[arg] {
				i++ // skip the flag's value
			}

			continue
		}

		if hostSeen {
			return false // remote command present
		}

		hostSeen = true
	}

	return hostSeen
}
