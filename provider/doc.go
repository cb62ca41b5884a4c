// Package provider is the seam between pitwall and the large language models
// that narrate its strategy calls.
//
// A Provider turns a single-turn Request (system instruction, prompt and
// sampling settings) into a Response holding the text parts of every
// candidate the model returned. Backends live in sub-packages and register a
// Factory under their name when imported:
//
//	import _ "github.com/casualjim/pitwall/provider/gemini"
//
//	p, err := provider.Open(ctx, "gemini", provider.Settings{APIKey: key})
//	if err != nil {
//		return err
//	}
//	resp, err := p.Generate(ctx, provider.Request{Prompt: "Box this lap?"})
//
// Providers do not post-process text; picking the text out of the candidates
// is left to the caller.
package provider
