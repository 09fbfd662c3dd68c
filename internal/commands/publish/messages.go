package publishcmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const publishTreeMessageType = "wikisync.publish.tree"

// PublishTreeCommand publishes every markdown document found under Path.
type PublishTreeCommand struct {
	// Path is a markdown file or a directory searched recursively.
	Path string `json:"path"`
	// Labels are added to every published page, on top of configured ones.
	Labels []string `json:"labels,omitempty"`
	// DryRun publishes into an in-memory store and leaves the wiki untouched.
	DryRun bool `json:"dry_run,omitempty"`
}

// Type implements command.Message.
func (PublishTreeCommand) Type() string { return publishTreeMessageType }

// Validate ensures a path is present before handlers execute.
func (cmd PublishTreeCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Path, validation.Required, validation.By(func(value any) error {
			if strings.TrimSpace(value.(string)) == "" {
				return validation.NewError("wikisync.publish.tree.path_required", "path is required")
			}
			return nil
		})),
	)
}
