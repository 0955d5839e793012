package source

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Flags annotate a message. The source leaves them untouched; the daemon sets
// FlagNick when the message mentions one of the user's aliases.
type Flags uint32

const (
	FlagNick Flags = 1 << iota
)

// Has reports whether all bits in f2 are set.
func (f Flags) Has(f2 Flags) bool { return f&f2 == f2 }

// Names lists the flags this package knows, by name.
func (f Flags) Names() []string {
	names := []string{}
	if f.Has(FlagNick) {
		names = append(names, "nick")
	}
	return names
}

// parseFlags splits host flag names into known bits and the names it does
// not know, which are carried through unchanged.
func parseFlags(names []string) (Flags, []string) {
	var f Flags
	var other []string
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "nick":
			f |= FlagNick
		case "":
		default:
			other = append(other, n)
		}
	}
	return f, other
}

// Message is one inbound chat message. OtherFlags holds host flags aka does
// not interpret; they are written back out next to Flags.
type Message struct {
	Account      string
	Sender       string
	Conversation string
	Text         string
	Flags        Flags
	OtherFlags   []string
	Timestamp    time.Time
}

type wireMessage struct {
	Account      string          `json:"account,omitempty"`
	Sender       string          `json:"sender,omitempty"`
	Conversation string          `json:"conversation,omitempty"`
	Text         string          `json:"text"`
	Flags        json.RawMessage `json:"flags,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}

// MarshalJSON renders flags as one list of names, known ones first.
func (m Message) MarshalJSON() ([]byte, error) {
	names := append(m.Flags.Names(), m.OtherFlags...)
	flags, err := json.Marshal(names)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireMessage{
		Account:      m.Account,
		Sender:       m.Sender,
		Conversation: m.Conversation,
		Text:         m.Text,
		Flags:        flags,
		Timestamp:    m.Timestamp,
	})
}

// UnmarshalJSON accepts flags as a list of names or a single name. A flags
// value of any other shape is ignored rather than failing the message.
func (m *Message) UnmarshalJSON(data []byte) error {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	var names []string
	if len(w.Flags) > 0 {
		if err := json.Unmarshal(w.Flags, &names); err != nil {
			var one string
			if json.Unmarshal(w.Flags, &one) == nil {
				names = []string{one}
			}
		}
	}
	flags, other := parseFlags(names)
	*m = Message{
		Account:      w.Account,
		Sender:       w.Sender,
		Conversation: w.Conversation,
		Text:         w.Text,
		Flags:        flags,
		OtherFlags:   other,
		Timestamp:    w.Timestamp,
	}
	return nil
}

// Format selects how each input line is decoded.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// ParseFormat maps a config value onto a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatText:
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown source format %q (want json or text)", s)
	}
}

// Reader decodes one message per line.
type Reader struct {
	r      io.Reader
	format Format
	logger *logrus.Logger
	now    func() time.Time
}

func NewReader(r io.Reader, format Format, logger *logrus.Logger) *Reader {
	return &Reader{r: r, format: format, logger: logger, now: time.Now}
}

// Open returns a Reader over path; "-" or "" means stdin. The returned closer
// must be called when done.
func Open(path string, format Format, logger *logrus.Logger) (*Reader, io.Closer, error) {
	if path == "" || path == "-" {
		return NewReader(os.Stdin, format, logger), io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open source: %w", err)
	}
	return NewReader(f, format, logger), f, nil
}

// Run sends decoded messages to out until EOF (returning nil) or ctx is done.
// Lines have no length limit. Lines that fail to decode are logged and skipped.
func (r *Reader) Run(ctx context.Context, out chan<- Message) error {
	br := bufio.NewReader(r.r)
	for {
		line, readErr := br.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			if errors.Is(readErr, os.ErrClosed) {
				return nil
			}
			return fmt.Errorf("read source: %w", readErr)
		}
		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) != "" {
			msg, err := r.decode(line)
			if err != nil {
				r.logger.Warnf("source: skipping line: %v", err)
			} else {
				select {
				case out <- msg:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
		if readErr != nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func (r *Reader) decode(line string) (Message, error) {
	var msg Message
	switch r.format {
	case FormatText:
		msg.Text = line
	default:
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			return Message{}, fmt.Errorf("decode message: %w", err)
		}
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = r.now()
	}
	return msg, nil
}
