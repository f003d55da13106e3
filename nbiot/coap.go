package nbiot

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ContentFormat identifies the media type of a CoAP payload. The values
// are the CoRE content-format registry identifiers.
type ContentFormat int

const (
	TextPlain      ContentFormat = 0
	AppLinkFormat  ContentFormat = 40
	AppXML         ContentFormat = 41
	AppOctetStream ContentFormat = 42
	AppEXI         ContentFormat = 47
	AppJSON        ContentFormat = 50
	AppCBOR        ContentFormat = 60
)

// MaxURILength is the longest URI the firmware's CoAP profile accepts.
const MaxURILength = 200

// coapChunkSize is the largest payload slice that fits a single AT+UCOAPC
// command. Larger payloads are split; the serial link preserves byte
// order, which the server relies on to reconstruct the body.
const coapChunkSize = 448

// UCOAPC method selectors.
const (
	coapMethodGet    = 1
	coapMethodDelete = 2
	coapMethodPut    = 3
	coapMethodPost   = 4
)

// CoapResponse is the outcome of one CoAP exchange. Code is the CoAP
// status encoded as class*100+detail (2.05 -> 205, 4.04 -> 404). It is
// reported separately from the channel-level result: a 4.04 exchange
// still completes successfully at the AT level.
type CoapResponse struct {
	Code    int
	Payload []byte
}

// ConfigureCoAP programs CoAP profile 0 with the server address, port and
// URI, replacing any previous profile. The URI length is validated locally;
// a violation is reported without any channel interaction.
func (m *Modem) ConfigureCoAP(ctx context.Context, ipv4 string, port uint16, uri string) error {
	if len(uri) > MaxURILength {
		return fmt.Errorf("uri length %d exceeds %d: %w", len(uri), MaxURILength, ErrExceedsMaxValue)
	}
	if ip := net.ParseIP(ipv4); ip == nil || ip.To4() == nil {
		return fmt.Errorf("invalid IPv4 address %q", ipv4)
	}

	// Profile 0 fields, then mark the profile valid and select it.
	cmds := []string{
		fmt.Sprintf(`AT+UCOAP=0,"%s","%d"`, ipv4, port),
		fmt.Sprintf(`AT+UCOAP=1,"%s"`, uri),
		`AT+UCOAP=3,"1"`,
		`AT+UCOAP=4,"0"`,
	}
	for _, cmd := range cmds {
		if err := m.execOK(ctx, cmd, m.config.ATTimeout); err != nil {
			return fmt.Errorf("configure CoAP profile: %w", err)
		}
	}

	m.mu.Lock()
	m.coapConfigured = true
	m.mu.Unlock()
	return nil
}

// isCoapConfigured reports whether a CoAP profile has been programmed.
func (m *Modem) isCoapConfigured() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.coapConfigured
}

// CoapGet performs a GET against the configured profile.
func (m *Modem) CoapGet(ctx context.Context) (CoapResponse, error) {
	return m.coapRequest(ctx, coapMethodGet)
}

// CoapDelete performs a DELETE against the configured profile.
func (m *Modem) CoapDelete(ctx context.Context) (CoapResponse, error) {
	return m.coapRequest(ctx, coapMethodDelete)
}

// CoapPut performs a PUT against the configured profile, sending payload
// tagged with the given content format.
func (m *Modem) CoapPut(ctx context.Context, payload []byte, format ContentFormat) (CoapResponse, error) {
	return m.coapSend(ctx, coapMethodPut, payload, format)
}

// CoapPost performs a POST against the configured profile, sending payload
// tagged with the given content format.
func (m *Modem) CoapPost(ctx context.Context, payload []byte, format ContentFormat) (CoapResponse, error) {
	return m.coapSend(ctx, coapMethodPost, payload, format)
}

// coapRequest issues a bodyless CoAP method (GET, DELETE).
func (m *Modem) coapRequest(ctx context.Context, method int) (CoapResponse, error) {
	if !m.isCoapConfigured() {
		return CoapResponse{}, ErrCoapNotConfigured
	}
	lines, err := m.exec(ctx, fmt.Sprintf("AT+UCOAPC=%d", method), m.config.CoapTimeout)
	if err != nil {
		return CoapResponse{}, err
	}
	return parseCoapReply(method, lines)
}

// coapSend issues a body-carrying CoAP method (PUT, POST). Payloads above
// the single-command capacity are split into chunks carried in order, each
// flagged pending except the last.
func (m *Modem) coapSend(ctx context.Context, method int, payload []byte, format ContentFormat) (CoapResponse, error) {
	if !m.isCoapConfigured() {
		return CoapResponse{}, ErrCoapNotConfigured
	}

	rest := payload
	for len(rest) > coapChunkSize {
		chunk, pending := rest[:coapChunkSize], rest[coapChunkSize:]
		cmd := fmt.Sprintf(`AT+UCOAPC=%d,"%s",%d,1`, method, chunk, format)
		if err := m.execOK(ctx, cmd, m.config.CoapTimeout); err != nil {
			return CoapResponse{}, fmt.Errorf("send payload chunk: %w", err)
		}
		rest = pending
	}

	cmd := fmt.Sprintf(`AT+UCOAPC=%d,"%s",%d,0`, method, rest, format)
	lines, err := m.exec(ctx, cmd, m.config.CoapTimeout)
	if err != nil {
		return CoapResponse{}, err
	}
	return parseCoapReply(method, lines)
}

// parseCoapReply extracts the response body (+UCOAPCD lines, in arrival
// order) and the exchange result (+UCOAPCR) from the command's data lines.
//
// Result shape: +UCOAPCR: <method>,<ok>[,"<class>.<detail>"]
func parseCoapReply(method int, lines []string) (CoapResponse, error) {
	var resp CoapResponse
	var result string

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "+UCOAPCD:"):
			resp.Payload = append(resp.Payload, strings.TrimSpace(strings.TrimPrefix(line, "+UCOAPCD:"))...)
		case strings.HasPrefix(line, "+UCOAPCR:"):
			result = strings.TrimSpace(strings.TrimPrefix(line, "+UCOAPCR:"))
		}
	}

	if result == "" {
		return CoapResponse{}, fmt.Errorf("%w: no +UCOAPCR in CoAP reply", ErrMalformedReply)
	}

	fields := strings.Split(result, ",")
	if len(fields) < 2 {
		return CoapResponse{}, fmt.Errorf("%w: +UCOAPCR payload %q", ErrMalformedReply, result)
	}
	if got, err := strconv.Atoi(strings.TrimSpace(fields[0])); err != nil || got != method {
		return CoapResponse{}, fmt.Errorf("%w: +UCOAPCR method %q", ErrMalformedReply, fields[0])
	}
	if strings.TrimSpace(fields[1]) != "1" {
		return CoapResponse{}, fmt.Errorf("CoAP exchange failed: %w", ErrCommandRejected)
	}
	// A completed exchange always carries its CoAP status; without it the
	// zero Code would masquerade as a real result.
	if len(fields) < 3 {
		return CoapResponse{}, fmt.Errorf("%w: +UCOAPCR %q carries no CoAP code", ErrMalformedReply, result)
	}
	code, err := parseCoapCode(strings.Trim(strings.TrimSpace(fields[2]), `"`))
	if err != nil {
		return CoapResponse{}, err
	}
	resp.Code = code

	return resp, nil
}

// parseCoapCode converts the dotted "c.dd" CoAP status into its integer
// encoding, class*100+detail.
func parseCoapCode(s string) (int, error) {
	class, detail, ok := strings.Cut(s, ".")
	if !ok {
		return 0, fmt.Errorf("%w: CoAP code %q", ErrMalformedReply, s)
	}
	c, err := strconv.Atoi(class)
	if err != nil {
		return 0, fmt.Errorf("%w: CoAP code %q", ErrMalformedReply, s)
	}
	d, err := strconv.Atoi(detail)
	if err != nil {
		return 0, fmt.Errorf("%w: CoAP code %q", ErrMalformedReply, s)
	}
	return c*100 + d, nil
}
