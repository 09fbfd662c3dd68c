package publish

import (
	"context"
	"path/filepath"

	"github.com/goliatone/go-wikisync/internal/pages"
	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

// syncLabels deletes remote global labels missing from want, then creates
// every label in want. Re-creating a label that already exists is a no-op
// on the remote side.
func (p *Publisher) syncLabels(ctx context.Context, contentID string, want pages.Labels, logger interfaces.Logger) error {
	current, err := p.store.GetLabels(ctx, contentID, interfaces.LabelPrefixGlobal)
	if err != nil {
		return wrapStoreError(err, "label lookup failed")
	}

	for _, label := range current {
		if want.Contains(label.Name) {
			continue
		}
		logger.Debug("publish.label.deleting", "label", label.Name)
		if err := p.store.DeleteLabel(ctx, contentID, label.Name); err != nil {
			return wrapStoreError(err, "label delete failed")
		}
	}

	if want.Len() == 0 {
		return nil
	}
	labels := make([]interfaces.Label, 0, want.Len())
	for _, name := range want.Slice() {
		labels = append(labels, interfaces.Label{Prefix: interfaces.LabelPrefixGlobal, Name: name})
	}
	if err := p.store.CreateLabels(ctx, contentID, labels); err != nil {
		return wrapStoreError(err, "label create failed")
	}
	return nil
}

// syncAttachments uploads every media file of doc. A file whose base name
// matches an existing attachment replaces its data; others are added.
func (p *Publisher) syncAttachments(ctx context.Context, contentID string, doc *pages.Document, logger interfaces.Logger) error {
	if len(doc.Media) == 0 {
		return nil
	}
	existing, err := p.store.GetAttachments(ctx, contentID, "version")
	if err != nil {
		return wrapStoreError(err, "attachment lookup failed")
	}
	byName := make(map[string]interfaces.Attachment, len(existing))
	for _, att := range existing {
		byName[att.Title] = att
	}

	for _, media := range doc.Media {
		name := media.Name
		if name == "" {
			name = filepath.Base(media.Source)
		}

		if att, ok := byName[name]; ok {
			logger.Debug("publish.attachment.updating", "name", name, "attachment_id", att.ID, "version", att.Version.Number)
			updated, err := p.store.UpdateAttachment(ctx, interfaces.UpdateAttachmentRequest{
				ContentID:    contentID,
				AttachmentID: att.ID,
				Version:      att.Version.Number,
				Path:         media.Source,
				Name:         name,
			})
			if err != nil {
				return wrapStoreError(err, "attachment update failed")
			}
			if updated != nil {
				byName[name] = *updated
			}
			continue
		}

		logger.Debug("publish.attachment.adding", "name", name)
		added, err := p.store.AddAttachment(ctx, interfaces.AddAttachmentRequest{
			ContentID: contentID,
			Path:      media.Source,
			Name:      name,
		})
		if err != nil {
			return wrapStoreError(err, "attachment upload failed")
		}
		if added != nil {
			byName[name] = *added
		}
	}
	return nil
}
