package mogclient

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrNoTrackers is returned when the client has no tracker hosts to try.
var ErrNoTrackers = errors.New("no tracker hosts configured")

// TrackerError is an ERR reply from a tracker.
type TrackerError struct {
	Code    string
	Message string
}

func (e *TrackerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("tracker error %s", e.Code)
	}
	return fmt.Sprintf("tracker error %s: %s", e.Code, e.Message)
}

// encodeRequest renders "<command> <url-encoded args>\r\n".
func encodeRequest(command string, args url.Values) string {
	return command + " " + args.Encode() + "\r\n"
}

// parseResponse decodes "OK <args>" or "ERR <code> <message>".
func parseResponse(line string) (url.Values, error) {
	line = strings.TrimRight(line, "\r\n")
	status, rest, _ := strings.Cut(line, " ")
	switch status {
	case "OK":
		values, err := url.ParseQuery(strings.TrimSpace(rest))
		if err != nil {
			return nil, fmt.Errorf("decode tracker reply: %w", err)
		}
		return values, nil
	case "ERR":
		code, message, _ := strings.Cut(rest, " ")
		if decoded, err := url.QueryUnescape(message); err == nil {
			message = decoded
		}
		return nil, &TrackerError{Code: code, Message: strings.TrimSpace(message)}
	}
	return nil, fmt.Errorf("unexpected tracker reply %q", line)
}
