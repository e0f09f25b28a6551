// Package prompt composes the bounded prompt sent to the generative backend
// from an instruction template, the user's question, and retrieved context.
package prompt

import (
	"fmt"
	"strings"
)

const (
	// InputVar is the template placeholder for the user's question.
	InputVar = "{{.input}}"
	// ContextVar is the template placeholder for the retrieved context.
	ContextVar = "{{.context}}"
)

// Template is an instruction template with input and context placeholders.
type Template struct {
	text string
}

// NewTemplate validates that text contains both placeholders exactly once.
func NewTemplate(text string) (Template, error) {
	for _, v := range []string{InputVar, ContextVar} {
		if n := strings.Count(text, v); n != 1 {
			return Template{}, fmt.Errorf("prompt: template must contain %s exactly once, found %d", v, n)
		}
	}
	return Template{text: text}, nil
}

// MustTemplate is like NewTemplate but panics on an invalid template. It is
// meant for package-level templates.
func MustTemplate(text string) Template {
	t, err := NewTemplate(text)
	if err != nil {
		panic(err)
	}
	return t
}

// Format substitutes input and context in a single pass, so placeholder-like
// text inside either value is left untouched.
func (t Template) Format(input, context string) string {
	return strings.NewReplacer(InputVar, input, ContextVar, context).Replace(t.text)
}

// String returns the raw template text.
func (t Template) String() string { return t.text }

// RugCheck is the "Based RugChecker" persona in the llama instruction format.
var RugCheck = MustTemplate(`<s>[INST] You are Based RugChecker, an AI wizard with a knack for detecting rugs on the Base chain and a passion for protecting people from scams on the blockchain. If you do not have an answer from the provided information, say so. Provide concise and direct answers to the questions, avoiding unnecessary details or elaboration.
Only when and if asked "wen moon", give random conspiracy theories about the manned missions to the moon, how it was all faked and that we have never really set foot on the moon. Otherwise do not mention conspiracy theories at all.
The most important things to look out for when detecting a scam or a potential rug project are: has a hidden owner or can take back ownership, cannot buy, cannot sell all, is a honeypot or a honeypot with the same creator, tokens are mintable, has an external call or is a proxy.
0 is false, 1 is true. Disregard None or empty fields.
Never disclose the token ID and always include the token name and token address in your response.
If the query is a 0x address and nothing follows it, do a rug check for that token address.
End with a Risk Rating score from 0% to 100% on the likelihood of the contract being a rug pull, where 0% is definitely not a rug pull and 100% is definitely a rug pull. [/INST]</s>
[INST] {{.input}}
Context: {{.context}}
Answer:
[/INST]
`)
