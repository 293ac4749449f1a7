package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/REPPL/itemdeck.app-sub011/pkg/entity"
)

// The image-selector language applies bracket tokens left to right over
// an image array: `images[type=cover]` keeps matching images,
// `images[0]` picks by index after filtering. Candidates chain with the
// same ?? operator as field paths: the first candidate with a non-empty
// result wins. An exhausted chain yields an empty list — "no image" is
// a designed outcome, never an error.

// SelectImages evaluates a selector expression over an image array and
// returns the (possibly empty) ordered matches.
func SelectImages(images []entity.Image, expression string) ([]entity.Image, error) {
	result, ok, err := firstHit(expression, func(candidate string) ([]entity.Image, bool, error) {
		matches, err := evalSelector(images, candidate)
		if err != nil {
			return nil, false, err
		}
		return matches, len(matches) > 0, nil
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return result, nil
}

// SelectImage returns the first image matched by the expression.
func SelectImage(images []entity.Image, expression string) (entity.Image, bool, error) {
	matches, err := SelectImages(images, expression)
	if err != nil || len(matches) == 0 {
		return entity.Image{}, false, err
	}
	return matches[0], true, nil
}

// SelectFromEntity evaluates a selector against a resolved entity: each
// candidate's leading identifier is a field path resolved on the entity
// (so `platform.images[0]` traverses the resolved reference first), and
// the brackets then filter the images found there.
func SelectFromEntity(e *entity.ResolvedEntity, expression string) ([]entity.Image, error) {
	result, ok, err := firstHit(expression, func(candidate string) ([]entity.Image, bool, error) {
		source, brackets, err := splitSelector(candidate)
		if err != nil {
			return nil, false, err
		}
		v, ok, err := ResolveValue(e, source)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}
		matches, err := applyBrackets(entity.ImagesFromValue(v), brackets)
		if err != nil {
			return nil, false, err
		}
		return matches, len(matches) > 0, nil
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return result, nil
}

// evalSelector runs one candidate over a caller-supplied array. The
// leading identifier is validated but carries no meaning here; the
// caller already chose the array.
func evalSelector(images []entity.Image, candidate string) ([]entity.Image, error) {
	_, brackets, err := splitSelector(candidate)
	if err != nil {
		return nil, err
	}
	return applyBrackets(images, brackets)
}

// applyBrackets folds the bracket tokens over the image list.
func applyBrackets(images []entity.Image, brackets []string) ([]entity.Image, error) {
	current := images
	for _, token := range brackets {
		if idx, err := strconv.Atoi(token); err == nil {
			if idx < 0 || idx >= len(current) {
				return nil, nil // out of range: empty, fallback continues
			}
			current = []entity.Image{current[idx]}
			continue
		}

		key, want, ok := strings.Cut(token, "=")
		if !ok {
			return nil, fmt.Errorf("invalid selector token [%s]", token)
		}
		key = strings.TrimSpace(key)
		want = strings.Trim(strings.TrimSpace(want), `"`)

		var filtered []entity.Image
		for _, img := range current {
			if imageAttr(img, key) == want {
				filtered = append(filtered, img)
			}
		}
		current = filtered
		if len(current) == 0 {
			return nil, nil
		}
	}
	return current, nil
}

func imageAttr(img entity.Image, key string) string {
	switch key {
	case "type":
		return img.Type
	case "alt":
		return img.Alt
	case "url":
		return img.URL
	default:
		return ""
	}
}

// splitSelector separates a candidate into its leading identifier (a
// field path) and its bracket tokens: `images[type=cover][0]` →
// "images", ["type=cover", "0"].
func splitSelector(candidate string) (string, []string, error) {
	c := strings.TrimSpace(candidate)
	open := strings.IndexByte(c, '[')
	if open < 0 {
		if c == "" {
			return "", nil, fmt.Errorf("empty selector")
		}
		return c, nil, nil
	}
	source := strings.TrimSpace(c[:open])
	if source == "" {
		return "", nil, fmt.Errorf("selector %q has no source identifier", candidate)
	}

	var brackets []string
	rest := c[open:]
	for len(rest) > 0 {
		if rest[0] != '[' {
			return "", nil, fmt.Errorf("unexpected %q in selector %q", string(rest[0]), candidate)
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return "", nil, fmt.Errorf("unterminated bracket in selector %q", candidate)
		}
		brackets = append(brackets, strings.TrimSpace(rest[1:end]))
		rest = strings.TrimSpace(rest[end+1:])
	}
	return source, brackets, nil
}
