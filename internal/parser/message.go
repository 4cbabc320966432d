package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/davidpaquet/search-sessions/internal/model"
)

// rawRecord covers the transcript line shapes of both layouts:
//
//	{"type":"user","sessionId":"..","message":{"content":..}}            claude
//	{"type":"message","message":{"role":"assistant","content":[..]}}     openclaw
//	{"type":"assistant","text":".."}                                     flat
type rawRecord struct {
	Type      string          `json:"type"`
	Role      string          `json:"role"`
	SessionID string          `json:"sessionId"`
	Timestamp json.RawMessage `json:"timestamp"`
	Text      json.RawMessage `json:"text"`
	Content   json.RawMessage `json:"content"`
	Message   json.RawMessage `json:"message"`
}

type rawMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
	Text    json.RawMessage `json:"text"`
}

type contentBlock struct {
	Type    string          `json:"type"`
	Text    string          `json:"text"`
	Content json.RawMessage `json:"content"`
}

// DecodeMessage decodes one transcript line. A malformed line returns an error
// and callers are expected to skip it.
func DecodeMessage(line []byte) (model.MessageRecord, error) {
	var rec rawRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return model.MessageRecord{}, err
	}

	var msg rawMessage
	var msgText string
	if len(rec.Message) > 0 {
		if rec.Message[0] == '{' {
			if err := json.Unmarshal(rec.Message, &msg); err != nil {
				return model.MessageRecord{}, fmt.Errorf("decode message: %w", err)
			}
		} else {
			msgText = contentText(rec.Message)
		}
	}

	out := model.MessageRecord{
		SessionID: rec.SessionID,
		Timestamp: parseRawTimestamp(rec.Timestamp),
	}

	switch typ := strings.ToLower(rec.Type); typ {
	case "user", "assistant":
		out.Role = model.ParseRole(typ)
	case "message", "":
		out.Role = model.ParseRole(firstNonEmpty(msg.Role, rec.Role))
	default:
		out.Role = model.ParseRole(rec.Role)
	}

	for _, raw := range []json.RawMessage{msg.Content, msg.Text, rec.Content, rec.Text} {
		if text := contentText(raw); text != "" {
			out.Text = text
			break
		}
	}
	if out.Text == "" {
		out.Text = msgText
	}
	return out, nil
}

// contentText flattens a string or an array of content blocks. Text blocks
// contribute their text, tool results their content.
func contentText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '[':
		var blocks []json.RawMessage
		if err := json.Unmarshal(raw, &blocks); err != nil {
			return ""
		}
		parts := make([]string, 0, len(blocks))
		for _, b := range blocks {
			b = bytes.TrimSpace(b)
			if len(b) > 0 && b[0] == '"' {
				if s := contentText(b); s != "" {
					parts = append(parts, s)
				}
				continue
			}
			var block contentBlock
			if err := json.Unmarshal(b, &block); err != nil {
				continue
			}
			switch block.Type {
			case "text":
				if block.Text != "" {
					parts = append(parts, block.Text)
				}
			case "tool_result":
				if s := contentText(block.Content); s != "" {
					parts = append(parts, s)
				}
			}
		}
		return strings.Join(parts, " ")
	case '{':
		var block contentBlock
		if err := json.Unmarshal(raw, &block); err != nil {
			return ""
		}
		if block.Text != "" {
			return block.Text
		}
		return contentText(block.Content)
	default:
		return ""
	}
}

func parseRawTimestamp(raw json.RawMessage) time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return time.Time{}
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}
		}
		return ParseTimestamp(s)
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(string(raw), 64)
		if ferr != nil {
			return time.Time{}
		}
		n = int64(f)
	}
	return unixTime(n)
}

// ParseTimestamp accepts RFC3339 strings and unix seconds or milliseconds.
// Anything else yields the zero time.
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return unixTime(n)
	}
	return time.Time{}
}

func unixTime(n int64) time.Time {
	if n <= 0 {
		return time.Time{}
	}
	if n > 1_000_000_000_000 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
