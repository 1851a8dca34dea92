// Package nav defines the navigation token grammar and the browse-state
// pagination rules shared by the callback router and the renderer.
package nav

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cinephiles/cinebot/internal/model"
)

// Intent identifies the action a callback token requests.
type Intent int

const (
	IntentUnknown Intent = iota
	IntentOpenItem
	IntentOpenSeasonList
	IntentOpenEpisodeList
	IntentOpenEpisodeDetail
	IntentToggleLike
	IntentToggleWatchlist
	IntentShare
	IntentOpenSimilar
	IntentOpenMenu
	IntentOpenSettings
	IntentPaginate
)

// String returns the intent tag used on the wire.
func (i Intent) String() string {
	switch i {
	case IntentOpenItem:
		return "open-item"
	case IntentOpenSeasonList:
		return "open-seasons"
	case IntentOpenEpisodeList:
		return "open-episodes"
	case IntentOpenEpisodeDetail:
		return "open-episode"
	case IntentToggleLike:
		return "toggle-like"
	case IntentToggleWatchlist:
		return "toggle-watchlist"
	case IntentShare:
		return "share"
	case IntentOpenSimilar:
		return "open-similar"
	case IntentOpenMenu:
		return "open-menu"
	case IntentOpenSettings:
		return "open-settings"
	case IntentPaginate:
		return "paginate"
	default:
		return "unknown"
	}
}

// Paginate directions.
const (
	DirPrev = -1
	DirNext = +1
)

const delimiter = "_"

// Token is a decoded navigation token. Only the fields relevant to the
// intent are populated.
type Token struct {
	Intent  Intent
	Kind    model.MediaKind // OpenItem, ToggleLike, ToggleWatchlist, Share, OpenSimilar
	ItemID  int64           // entity id; series id for season/episode intents
	Season  int             // OpenEpisodeList, OpenEpisodeDetail, Paginate
	Episode int             // OpenEpisodeDetail
	Page    int             // OpenEpisodeList
	Dir     int             // Paginate: DirPrev or DirNext
	Section string          // OpenMenu section or OpenSettings field
}

// Encode renders the token in its wire form. The result is exactly
// parseable by Parse for every valid token.
func (t Token) Encode() string {
	switch t.Intent {
	case IntentOpenItem:
		return join(string(t.Kind), itoa(t.ItemID))
	case IntentOpenSeasonList:
		return join("seasons", itoa(t.ItemID))
	case IntentOpenEpisodeList:
		return join("season", itoa(t.ItemID), strconv.Itoa(t.Season), strconv.Itoa(t.Page))
	case IntentOpenEpisodeDetail:
		return join("episode", itoa(t.ItemID), strconv.Itoa(t.Season), strconv.Itoa(t.Episode))
	case IntentToggleLike:
		return join("like", string(t.Kind), itoa(t.ItemID))
	case IntentToggleWatchlist:
		return join("save", string(t.Kind), itoa(t.ItemID))
	case IntentShare:
		return join("shareitem", string(t.Kind), itoa(t.ItemID))
	case IntentOpenSimilar:
		return join("similar", string(t.Kind), itoa(t.ItemID))
	case IntentOpenMenu:
		return join("menu", t.Section)
	case IntentOpenSettings:
		return join("settings", t.Section)
	case IntentPaginate:
		dir := "next"
		if t.Dir == DirPrev {
			dir = "prev"
		}
		return join("page", itoa(t.ItemID), strconv.Itoa(t.Season), dir)
	default:
		return ""
	}
}

// Parse decodes a wire token. Unknown intent tags, missing fields and
// numeric fields that do not parse as non-negative integers all yield
// model.ErrMalformedToken; callers fail closed on it.
func Parse(raw string) (Token, error) {
	fields := strings.Split(raw, delimiter)
	if len(fields) == 0 || fields[0] == "" {
		return Token{}, fmt.Errorf("%w: empty token", model.ErrMalformedToken)
	}

	tag, rest := fields[0], fields[1:]
	switch tag {
	case "movie", "tv":
		id, err := one(rest)
		if err != nil {
			return Token{}, err
		}
		return Token{Intent: IntentOpenItem, Kind: model.MediaKind(tag), ItemID: id}, nil

	case "seasons":
		id, err := one(rest)
		if err != nil {
			return Token{}, err
		}
		return Token{Intent: IntentOpenSeasonList, Kind: model.KindTV, ItemID: id}, nil

	case "season":
		nums, err := exactly(rest, 3)
		if err != nil {
			return Token{}, err
		}
		return Token{
			Intent: IntentOpenEpisodeList,
			Kind:   model.KindTV,
			ItemID: nums[0],
			Season: int(nums[1]),
			Page:   int(nums[2]),
		}, nil

	case "episode":
		nums, err := exactly(rest, 3)
		if err != nil {
			return Token{}, err
		}
		return Token{
			Intent:  IntentOpenEpisodeDetail,
			Kind:    model.KindTV,
			ItemID:  nums[0],
			Season:  int(nums[1]),
			Episode: int(nums[2]),
		}, nil

	case "like", "save", "shareitem", "similar":
		kind, id, err := kindAndID(rest)
		if err != nil {
			return Token{}, err
		}
		intent := map[string]Intent{
			"like":      IntentToggleLike,
			"save":      IntentToggleWatchlist,
			"shareitem": IntentShare,
			"similar":   IntentOpenSimilar,
		}[tag]
		return Token{Intent: intent, Kind: kind, ItemID: id}, nil

	case "menu", "settings":
		if len(rest) != 1 || rest[0] == "" {
			return Token{}, fmt.Errorf("%w: %s needs a section", model.ErrMalformedToken, tag)
		}
		intent := IntentOpenMenu
		if tag == "settings" {
			intent = IntentOpenSettings
		}
		return Token{Intent: intent, Section: rest[0]}, nil

	case "page":
		if len(rest) != 3 {
			return Token{}, fmt.Errorf("%w: page needs id, season, direction", model.ErrMalformedToken)
		}
		id, err := parseUint(rest[0])
		if err != nil {
			return Token{}, err
		}
		season, err := parseUint(rest[1])
		if err != nil {
			return Token{}, err
		}
		var dir int
		switch rest[2] {
		case "next":
			dir = DirNext
		case "prev":
			dir = DirPrev
		default:
			return Token{}, fmt.Errorf("%w: bad direction %q", model.ErrMalformedToken, rest[2])
		}
		return Token{
			Intent: IntentPaginate,
			Kind:   model.KindTV,
			ItemID: id,
			Season: int(season),
			Dir:    dir,
		}, nil

	default:
		return Token{}, fmt.Errorf("%w: unknown tag %q", model.ErrMalformedToken, tag)
	}
}

func join(fields ...string) string { return strings.Join(fields, delimiter) }

func itoa(v int64) string { return strconv.FormatInt(v, 10) }

func parseUint(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: field %q is not a non-negative integer", model.ErrMalformedToken, s)
	}
	return v, nil
}

func one(rest []string) (int64, error) {
	if len(rest) != 1 {
		return 0, fmt.Errorf("%w: expected one id field", model.ErrMalformedToken)
	}
	return parseUint(rest[0])
}

func exactly(rest []string, n int) ([]int64, error) {
	if len(rest) != n {
		return nil, fmt.Errorf("%w: expected %d numeric fields, got %d", model.ErrMalformedToken, n, len(rest))
	}
	out := make([]int64, n)
	for i, f := range rest {
		v, err := parseUint(f)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func kindAndID(rest []string) (model.MediaKind, int64, error) {
	if len(rest) != 2 {
		return "", 0, fmt.Errorf("%w: expected kind and id", model.ErrMalformedToken)
	}
	kind := model.MediaKind(rest[0])
	if !kind.Valid() {
		return "", 0, fmt.Errorf("%w: unknown kind %q", model.ErrMalformedToken, rest[0])
	}
	id, err := parseUint(rest[1])
	if err != nil {
		return "", 0, err
	}
	return kind, id, nil
}
