package git

import (
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Tags returns the annotated tags of the repository in reference store
// order. Tag references that point directly at a non-tag object
// (lightweight tags) are skipped.
//
// A tag reference whose object is missing fails the whole call with an
// error carrying code NOT_FOUND.
//
// Examples:
//
//	tags, err := repo.Tags()
//	for _, tag := range tags {
//	    fmt.Printf("%s -> %s (%s)\n", tag.Name, tag.Target, tag.TargetType)
//	}
func (r *Repository) Tags() ([]Tag, error) {
	var tags []Tag
	err := r.withHandle(func(h *handle) error {
		var err error
		tags, err = h.tags()
		return err
	})
	return tags, err
}

func (h *handle) tags() ([]Tag, error) {
	iter, err := h.repo.Tags()
	if err != nil {
		return nil, wrapError(err, "failed to get tags")
	}
	defer iter.Close()

	var annotated []*object.Tag
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			h.logger.Debug("skipping symbolic tag reference", "ref", ref.Name().String())
			return nil
		}

		obj, err := h.storage.EncodedObject(plumbing.AnyObject, ref.Hash())
		if err != nil {
			return wrapError(err, "failed to read tag "+ref.Name().String())
		}
		if obj.Type() != plumbing.TagObject {
			h.logger.Debug("skipping lightweight tag", "ref", ref.Name().String(), "type", obj.Type().String())
			return nil
		}

		tag, err := object.DecodeTag(h.storage, obj)
		if err != nil {
			return wrapError(err, "failed to decode tag "+ref.Name().String())
		}
		annotated = append(annotated, tag)
		return nil
	})
	if err != nil {
		return nil, err
	}

	tags := make([]Tag, 0, len(annotated))
	for _, t := range annotated {
		tags = append(tags, Tag{
			Name:       t.Name,
			Message:    t.Message,
			Tagger:     signatureFromObject(t.Tagger),
			Target:     t.Target.String(),
			TargetType: t.TargetType.String(),
		})
	}
	return tags, nil
}
