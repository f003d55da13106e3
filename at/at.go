package at

const (
	// Terminal Control
	CRLF = "\r\n"

	// Response Codes
	OK       = "OK"
	ERROR    = "ERROR"
	CmeError = "+CME ERROR:"

	// Common commands
	CmdAt            = "AT"
	CmdEchoOff       = "ATE0"
	CmdVerboseErrors = "AT+CMEE=1"
	CmdReboot        = "AT+NRB"

	// Informational lines emitted by the SARA-N2 around a reboot
	Rebooting  = "REBOOTING"
	BootBanner = "u-blox"

	// URCs (Unsolicited Result Codes)
	UrcPsmStatus = "+NPSMR:"
	UrcSignal    = "+CSQ:"
)

type ResponseType int

const (
	TypeFinal ResponseType = iota // OK, ERROR, +CME ERROR
	TypeURC                       // Asynchronous notifications
	TypeData                      // Intermediate command output (+CEREG: ...)
)
