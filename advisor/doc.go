// Package advisor turns race data into prompts for a language model and
// returns the model's answer as plain text.
//
// An Advisor is stateless apart from its configuration: every call builds a
// fresh single-turn prompt with the layout
//
//	Task: <task>
//	System: <system instruction>
//
//	Context:
//	<indented JSON>
//
//	Input:
//	<indented JSON>
//
//	Requirements:
//	- <requirement>
//
//	Return clear, structured text with bullet points where appropriate.
//
// and sends it through a provider.Provider. The Advisor also satisfies
// agent.Explainer, so it can narrate every insight the strategy agent
// computes.
package advisor
