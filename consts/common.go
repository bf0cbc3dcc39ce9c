package consts

const (
	B = 1 << (iota * 10)
	KB
	MB
	GB
)

const HelpTemplate = `NAME:
   {{.Name}} - {{.Usage}}
USAGE:
   {{.HelpName}} {{if .VisibleFlags}}[global options]{{end}}{{if .Commands}} command [command options]{{end}} {{if .ArgsUsage}}{{.ArgsUsage}}{{else}}[arguments...]{{end}}
   {{if len .Authors}}
AUTHOR:
   {{range .Authors}}{{ . }}{{end}}
   {{end}}{{if .Commands}}
COMMANDS:
{{range .Commands}}{{if not .HideHelp}}   {{join .Names ", "}}{{ "\t"}}{{.Usage}}{{ "\n" }}{{end}}{{end}}{{end}}{{if .VisibleFlags}}
GLOBAL OPTIONS:
   {{range .VisibleFlags}}{{.}}
   {{end}}{{end}}{{if .Copyright }}
COPYRIGHT:
   {{.Copyright}}
   {{end}}{{if .Version}}
VERSION:
   {{.Version}}
   {{end}}
`

// 日志字段
const (
	LogFieldParams     = "params"
	LogFieldValue      = "value"
	LogFieldErr        = "err"
	LogFieldRemoteAddr = "remote_addr"
	LogFieldLocalAddr  = "local_addr"
	LogFieldCommand    = "command"
	LogFieldArgs       = "args"
	LogFieldSessionId  = "session_id"
	LogFieldCost       = "cost"
	LogFieldAddr       = "addr"
)

const (
	ServerName = "eggie_redis"
	CliName    = "eggie_redis-cli"
	Version    = "0.1.0"
)

var TmpDir = "/tmp/eggie_redis"
