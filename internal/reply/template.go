package reply

import (
	"strings"
	"text/template"
	"text/template/parse"
)

const tweetField = "TweetText"

var defaultPrompt = template.Must(template.New("reply").Parse(
	"Write a reply to this tweet:\n\n{{.TweetText}}"))

type promptData struct {
	TweetText string
}

// renderPrompt executes prompt as a template over the tweet text. An empty
// prompt uses the default template. A prompt that is not a valid template, or
// one that never references .TweetText, is followed by the tweet.
func renderPrompt(prompt, tweetText string) string {
	data := promptData{TweetText: tweetText}

	tmpl := defaultPrompt
	if prompt != "" {
		parsed, err := template.New("custom").Parse(prompt)
		if err != nil {
			return prompt + "\n\n" + tweetText
		}
		tmpl = parsed
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return prompt + "\n\n" + tweetText
	}
	if !referencesTweet(tmpl) {
		sb.WriteString("\n\n")
		sb.WriteString(tweetText)
	}
	return sb.String()
}

// referencesTweet reports whether tmpl, or a template it defines, reads .TweetText
func referencesTweet(tmpl *template.Template) bool {
	for _, t := range tmpl.Templates() {
		if t.Tree != nil && usesField(t.Tree.Root, tweetField) {
			return true
		}
	}
	return false
}

// usesField reports whether any field reference in the tree ends in name
func usesField(node parse.Node, name string) bool {
	switch n := node.(type) {
	case nil:
		return false
	case *parse.ListNode:
		if n == nil {
			return false
		}
		for _, child := range n.Nodes {
			if usesField(child, name) {
				return true
			}
		}
	case *parse.ActionNode:
		return usesField(n.Pipe, name)
	case *parse.PipeNode:
		if n == nil {
			return false
		}
		for _, cmd := range n.Cmds {
			if usesField(cmd, name) {
				return true
			}
		}
	case *parse.CommandNode:
		for _, arg := range n.Args {
			if usesField(arg, name) {
				return true
			}
		}
	case *parse.FieldNode:
		return len(n.Ident) > 0 && n.Ident[len(n.Ident)-1] == name
	case *parse.ChainNode:
		return len(n.Field) > 0 && n.Field[len(n.Field)-1] == name
	case *parse.IfNode:
		return usesBranch(&n.BranchNode, name)
	case *parse.RangeNode:
		return usesBranch(&n.BranchNode, name)
	case *parse.WithNode:
		return usesBranch(&n.BranchNode, name)
	case *parse.TemplateNode:
		return usesField(n.Pipe, name)
	}
	return false
}

func usesBranch(b *parse.BranchNode, name string) bool {
	return usesField(b.Pipe, name) || usesField(b.List, name) || usesField(b.ElseList, name)
}
