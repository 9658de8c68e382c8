// Package normalizer turns loosely shaped AI service output into a closed Payload.
//
// The upstream reply is free text that may be a JSON object, may embed one in a
// fenced ```json block next to prose, or may be plain prose. Normalize tries those
// readings in that order and the first that yields a JSON object wins.
package normalizer

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Version identifies the Payload layout stored in message metadata.
const Version = 1

// Structure records which reading of the text produced the payload.
type Structure string

const (
	StructureDirectJSON Structure = "direct_json"
	StructureFencedJSON Structure = "fenced_json"
	StructureProse      Structure = "prose"
)

var (
	// Upstream envelope keys that may carry the reply text, in priority order.
	// Every display key is also accepted here.
	textKeys = []string{"answer", "text", "output", "message", "response", "reply", "content", "result"}
	// Keys inside the parsed object that may carry the user-facing text.
	displayKeys = []string{"answer", "message", "response", "reply", "text", "content"}
	sessionKeys = []string{"session_id", "sessionId", "conversation_id"}
	validKeys   = []string{"valid", "is_valid"}
	ambigKeys   = []string{"ambiguous", "is_ambiguous"}

	fencePattern  = regexp.MustCompile("(?s)```(?:json|JSON)?[ \t]*\\r?\\n?(.*?)```")
	amountPattern = regexp.MustCompile(`^-?[$€£]?-?\d[\d,]*(\.\d+)?$`)
)

// Policy holds the flags used when the payload does not state them.
type Policy struct {
	DefaultValid     bool
	DefaultAmbiguous bool
}

// DefaultPolicy treats unstructured output as not validated and ambiguous.
func DefaultPolicy() Policy {
	return Policy{DefaultValid: false, DefaultAmbiguous: true}
}

// Payload is the only shape downstream code reads.
type Payload struct {
	Version     int
	RawText     string
	DisplayText string
	Valid       bool
	Ambiguous   bool
	// Fields holds every other key of the parsed object.
	Fields    map[string]any
	Amounts   map[string]decimal.Decimal
	SessionID string
	Structure Structure
}

// Normalizer applies a Policy. It is stateless and safe for concurrent use.
type Normalizer struct {
	policy Policy
}

func New(policy Policy) *Normalizer {
	return &Normalizer{policy: policy}
}

// Normalize extracts the reply text from the upstream outputs and normalizes it.
// sessionID is the id the upstream envelope carried, if any; it wins over one
// embedded in the text.
func (n *Normalizer) Normalize(outputs map[string]any, sessionID string) Payload {
	payload := n.NormalizeText(ExtractText(outputs))
	if sessionID = strings.TrimSpace(sessionID); sessionID != "" {
		payload.SessionID = sessionID
	}
	return payload
}

// NormalizeText normalizes a single reply string.
func (n *Normalizer) NormalizeText(text string) Payload {
	payload := Payload{Version: Version, RawText: text}

	obj, outside, interior, structure := parse(text)
	payload.Structure = structure

	if obj == nil {
		payload.DisplayText = text
		payload.Valid = n.policy.DefaultValid
		payload.Ambiguous = n.policy.DefaultAmbiguous
		return payload
	}

	payload.Valid, payload.Ambiguous = n.flags(obj)

	consumed := map[string]bool{}
	for _, keys := range [][]string{validKeys, ambigKeys, sessionKeys} {
		for _, key := range keys {
			consumed[key] = true
		}
	}

	displayKey, display := firstString(obj, displayKeys)
	switch {
	case displayKey != "":
		consumed[displayKey] = true
		payload.DisplayText = display
	case outside != "":
		payload.DisplayText = outside
	case interior != "":
		payload.DisplayText = interior
	default:
		payload.DisplayText = text
	}

	if _, id := firstString(obj, sessionKeys); id != "" {
		payload.SessionID = id
	}

	for key, value := range obj {
		if consumed[key] {
			continue
		}
		if payload.Fields == nil {
			payload.Fields = map[string]any{}
		}
		payload.Fields[key] = value
		if amount, ok := toAmount(value); ok {
			if payload.Amounts == nil {
				payload.Amounts = map[string]decimal.Decimal{}
			}
			payload.Amounts[key] = amount
		}
	}

	return payload
}

// flags applies the derivation rule: explicit values are authoritative, a lone
// valid implies ambiguous = !valid, and only then does the policy fill in.
func (n *Normalizer) flags(obj map[string]any) (valid, ambiguous bool) {
	valid, hasValid := firstBool(obj, validKeys)
	ambiguous, hasAmbiguous := firstBool(obj, ambigKeys)

	if !hasValid {
		valid = n.policy.DefaultValid
	}
	if !hasAmbiguous {
		if hasValid {
			ambiguous = !valid
		} else {
			ambiguous = n.policy.DefaultAmbiguous
		}
	}
	return valid, ambiguous
}

// ExtractText returns the first populated reply field of an upstream envelope.
// Object values are re-encoded so they parse as direct JSON.
func ExtractText(outputs map[string]any) string {
	for _, key := range textKeys {
		value, ok := outputs[key]
		if !ok || value == nil {
			continue
		}
		switch v := value.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return v
			}
		case map[string]any:
			encoded, err := json.Marshal(v)
			if err == nil {
				return string(encoded)
			}
		}
	}
	return ""
}

// parse returns the decoded object, the prose around a fenced block and the
// block's interior. outside and interior are empty for direct JSON.
func parse(text string) (obj map[string]any, outside, interior string, structure Structure) {
	if obj, ok := decodeObject(text); ok {
		return obj, "", "", StructureDirectJSON
	}

	for _, loc := range fencePattern.FindAllStringSubmatchIndex(text, -1) {
		interior = strings.TrimSpace(text[loc[2]:loc[3]])
		obj, ok := decodeObject(interior)
		if !ok {
			continue
		}
		outside = strings.TrimSpace(text[:loc[0]] + " " + text[loc[1]:])
		return obj, strings.Join(strings.Fields(outside), " "), interior, StructureFencedJSON
	}

	return nil, "", "", StructureProse
}

// decodeObject accepts text only if it is exactly one JSON object.
func decodeObject(text string) (map[string]any, bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(trimmed)))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil || obj == nil {
		return nil, false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, false
	}
	return obj, true
}

func firstString(obj map[string]any, keys []string) (string, string) {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
			return key, s
		}
	}
	return "", ""
}

func firstBool(obj map[string]any, keys []string) (bool, bool) {
	for _, key := range keys {
		switch v := obj[key].(type) {
		case bool:
			return v, true
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true":
				return true, true
			case "false":
				return false, true
			}
		}
	}
	return false, false
}

func toAmount(value any) (decimal.Decimal, bool) {
	var raw string
	switch v := value.(type) {
	case json.Number:
		raw = v.String()
	case string:
		raw = strings.ReplaceAll(strings.TrimSpace(v), " ", "")
		if !amountPattern.MatchString(raw) {
			return decimal.Decimal{}, false
		}
		negative := strings.Contains(raw, "-")
		raw = strings.NewReplacer("$", "", "€", "", "£", "", ",", "", "-", "").Replace(raw)
		if negative {
			raw = "-" + raw
		}
	default:
		return decimal.Decimal{}, false
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return amount, true
}
