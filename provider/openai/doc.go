/*
Package openai implements provider.Provider on top of the OpenAI chat
completions API.

Importing the package registers it with the provider registry under the name
"openai". The settings map onto client options: APIKey becomes the bearer
token and BaseURL points the client at an OpenAI compatible endpoint, such as
a local inference server.

	p := openai.New(option.WithAPIKey(key))
	resp, err := p.Generate(ctx, provider.Request{
		SystemInstruction: "You are a race strategist",
		Prompt:            "Should car 44 pit this lap?",
	})

The system instruction is sent as a system message and the prompt as a single
user message. TopK has no OpenAI equivalent and is ignored.
*/
package openai
