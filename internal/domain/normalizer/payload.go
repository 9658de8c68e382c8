package normalizer

// Metadata renders the payload as the JSON side-channel stored on the assistant message.
func (p Payload) Metadata() map[string]any {
	meta := map[string]any{
		"normalizer_version": p.Version,
		"structure":          string(p.Structure),
		"valid":              p.Valid,
		"ambiguous":          p.Ambiguous,
	}
	if len(p.Fields) > 0 {
		meta["fields"] = p.Fields
	}
	if len(p.Amounts) > 0 {
		amounts := make(map[string]string, len(p.Amounts))
		for key, amount := range p.Amounts {
			amounts[key] = amount.String()
		}
		meta["amounts"] = amounts
	}
	return meta
}
