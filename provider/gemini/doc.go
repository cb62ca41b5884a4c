// Package gemini implements provider.Provider with the Google Gen AI SDK
// against the Gemini API.
//
// Importing the package registers it under the name "gemini". Model names may
// be given with or without the "models/" prefix. Every configured sampling
// setting is forwarded: temperature, top-p, top-k and the output token limit.
package gemini
