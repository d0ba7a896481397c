package chat

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/abhisek/cardbot/internal/store"
)

// MaxPayloadLen is the platform limit for callback data.
const MaxPayloadLen = 64

// ErrBadPayload is returned for callback data that does not decode.
var ErrBadPayload = errors.New("bad callback payload")

// Payload is the structured content of an inline button. The set of
// payload types is closed; Encode produces "tag:field:field".
type Payload interface {
	Encode() string
	payload()
}

// Learning.
type (
	// ShowCard reveals a card. Reverse records the direction it was
	// prompted in, so a button outliving its session still renders right.
	ShowCard struct {
		CardID  int64
		Reverse bool
	}

	Advance     struct{}
	EndSession  struct{}
	RemindLearn struct{}
	InputSkip   struct{}
	InputExit   struct{}
	LearnSet    struct{ Filter store.SetFilter }

	LearnMode struct {
		Filter     store.SetFilter
		Reverse    bool
		Sequential bool
		Goal       int // 0 means none
	}

	LearnInput struct {
		Filter  store.SetFilter
		Reverse bool
		Goal    int
	}
)

// Card list and card actions.
type (
	ListPage struct {
		Filter store.SetFilter
		Page   int
	}
	EditCard   struct{ CardID int64 }
	MoveCard   struct{ CardID int64 }
	DeleteCard struct{ CardID int64 }
	DeleteYes  struct{ CardID int64 }
	DeleteNo   struct{}

	MoveTo struct {
		CardID int64
		SetID  *int64 // nil moves the card out of any set
	}
)

// Set management.
type (
	AddSet       struct{}
	DeleteSet    struct{ SetID int64 }
	DeleteSetYes struct{ SetID int64 }
	DeleteSetNo  struct{}
)

const (
	tagShow         = "sh"
	tagAdvance      = "nx"
	tagEnd          = "en"
	tagRemind       = "rl"
	tagInputSkip    = "isk"
	tagInputExit    = "iex"
	tagLearnSet     = "lset"
	tagLearnMode    = "lm"
	tagLearnInput   = "li"
	tagListPage     = "lp"
	tagEdit         = "ed"
	tagMove         = "mv"
	tagMoveTo       = "mt"
	tagDelete       = "dl"
	tagDeleteYes    = "dly"
	tagDeleteNo     = "dln"
	tagAddSet       = "as"
	tagDeleteSet    = "ds"
	tagDeleteSetYes = "dsy"
	tagDeleteSetNo  = "dsn"
)

func join(fields ...string) string { return strings.Join(fields, ":") }

func id(v int64) string { return strconv.FormatInt(v, 10) }

func (p ShowCard) Encode() string { return join(tagShow, id(p.CardID), flag(p.Reverse, "r", "f")) }
func (Advance) Encode() string { return tagAdvance }
func (EndSession) Encode() string { return tagEnd }
func (RemindLearn) Encode() string { return tagRemind }
func (InputSkip) Encode() string { return tagInputSkip }
func (InputExit) Encode() string { return tagInputExit }
func (p LearnSet) Encode() string { return join(tagLearnSet, encodeFilter(p.Filter)) }
func (p EditCard) Encode() string { return join(tagEdit, id(p.CardID)) }
func (p MoveCard) Encode() string { return join(tagMove, id(p.CardID)) }
func (p DeleteCard) Encode() string { return join(tagDelete, id(p.CardID)) }
func (p DeleteYes) Encode() string { return join(tagDeleteYes, id(p.CardID)) }
func (DeleteNo) Encode() string { return tagDeleteNo }
func (AddSet) Encode() string { return tagAddSet }
func (p DeleteSet) Encode() string { return join(tagDeleteSet, id(p.SetID)) }
func (p DeleteSetYes) Encode() string { return join(tagDeleteSetYes, id(p.SetID)) }
func (DeleteSetNo) Encode() string { return tagDeleteSetNo }

func (p LearnMode) Encode() string {
	return join(tagLearnMode, encodeFilter(p.Filter), flag(p.Reverse, "r", "f"), flag(p.Sequential, "s", "r"), goal(p.Goal))
}

func (p LearnInput) Encode() string {
	return join(tagLearnInput, encodeFilter(p.Filter), flag(p.Reverse, "r", "f"), goal(p.Goal))
}

func (p ListPage) Encode() string {
	return join(tagListPage, encodeFilter(p.Filter), strconv.Itoa(p.Page))
}

func (p MoveTo) Encode() string {
	target := "n"
	if p.SetID != nil {
		target = id(*p.SetID)
	}
	return join(tagMoveTo, id(p.CardID), target)
}

func (ShowCard) payload() {}
func (Advance) payload() {}
func (EndSession) payload() {}
func (RemindLearn) payload() {}
func (InputSkip) payload() {}
func (InputExit) payload() {}
func (LearnSet) payload() {}
func (LearnMode) payload() {}
func (LearnInput) payload() {}
func (ListPage) payload() {}
func (EditCard) payload() {}
func (MoveCard) payload() {}
func (MoveTo) payload() {}
func (DeleteCard) payload() {}
func (DeleteYes) payload() {}
func (DeleteNo) payload() {}
func (AddSet) payload() {}
func (DeleteSet) payload() {}
func (DeleteSetYes) payload() {}
func (DeleteSetNo) payload() {}

// DecodePayload parses callback data produced by Payload.Encode.
func DecodePayload(data string) (Payload, error) {
	if data == "" || len(data) > MaxPayloadLen {
		return nil, fmt.Errorf("%w: %q", ErrBadPayload, data)
	}
	d := decoder{fields: strings.Split(data, ":")}
	p := d.decode()
	if d.err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrBadPayload, data, d.err)
	}
	return p, nil
}

// decoder consumes fields left to right and keeps the first error.
type decoder struct {
	fields []string
	pos    int
	err    error
}

func (d *decoder) next() string {
	if d.err != nil {
		return ""
	}
	if d.pos >= len(d.fields) {
		d.err = errors.New("missing field")
		return ""
	}
	f := d.fields[d.pos]
	d.pos++
	return f
}

func (d *decoder) int64() int64 {
	f := d.next()
	if d.err != nil {
		return 0
	}
	v, err := strconv.ParseInt(f, 10, 64)
	if err != nil {
		d.err = err
	}
	return v
}

func (d *decoder) int() int {
	return int(d.int64())
}

func (d *decoder) filter() store.SetFilter {
	f := d.next()
	if d.err != nil {
		return store.SetFilter{}
	}
	sf, err := decodeFilter(f)
	if err != nil {
		d.err = err
	}
	return sf
}

func (d *decoder) flag(on, off string) bool {
	switch f := d.next(); f {
	case on:
		return true
	case off:
		return false
	default:
		if d.err == nil {
			d.err = fmt.Errorf("unexpected flag %q", f)
		}
		return false
	}
}

func (d *decoder) goal() int {
	f := d.next()
	if d.err != nil || f == "" {
		return 0
	}
	v, err := strconv.Atoi(f)
	if err != nil || v < 0 {
		d.err = fmt.Errorf("bad goal %q", f)
	}
	return v
}

func (d *decoder) decode() Payload {
	var p Payload
	switch tag := d.next(); tag {
	case tagShow:
		sc := ShowCard{CardID: d.int64()}
		sc.Reverse = d.flag("r", "f")
		p = sc
	case tagAdvance:
		p = Advance{}
	case tagEnd:
		p = EndSession{}
	case tagRemind:
		p = RemindLearn{}
	case tagInputSkip:
		p = InputSkip{}
	case tagInputExit:
		p = InputExit{}
	case tagLearnSet:
		p = LearnSet{Filter: d.filter()}
	case tagLearnMode:
		m := LearnMode{Filter: d.filter()}
		m.Reverse = d.flag("r", "f")
		m.Sequential = d.flag("s", "r")
		m.Goal = d.goal()
		p = m
	case tagLearnInput:
		in := LearnInput{Filter: d.filter()}
		in.Reverse = d.flag("r", "f")
		in.Goal = d.goal()
		p = in
	case tagListPage:
		lp := ListPage{Filter: d.filter()}
		lp.Page = d.int()
		p = lp
	case tagEdit:
		p = EditCard{CardID: d.int64()}
	case tagMove:
		p = MoveCard{CardID: d.int64()}
	case tagMoveTo:
		mt := MoveTo{CardID: d.int64()}
		if target := d.next(); target != "n" && d.err == nil {
			v, err := strconv.ParseInt(target, 10, 64)
			if err != nil {
				d.err = err
			}
			mt.SetID = &v
		}
		p = mt
	case tagDelete:
		p = DeleteCard{CardID: d.int64()}
	case tagDeleteYes:
		p = DeleteYes{CardID: d.int64()}
	case tagDeleteNo:
		p = DeleteNo{}
	case tagAddSet:
		p = AddSet{}
	case tagDeleteSet:
		p = DeleteSet{SetID: d.int64()}
	case tagDeleteSetYes:
		p = DeleteSetYes{SetID: d.int64()}
	case tagDeleteSetNo:
		p = DeleteSetNo{}
	default:
		d.err = fmt.Errorf("unknown tag %q", tag)
		return nil
	}
	if d.err == nil && d.pos != len(d.fields) {
		d.err = errors.New("trailing fields")
	}
	return p
}

func encodeFilter(f store.SetFilter) string {
	switch f.Kind {
	case store.FilterNoSet:
		return "n"
	case store.FilterSet:
		return id(f.SetID)
	default:
		return "a"
	}
}

func decodeFilter(s string) (store.SetFilter, error) {
	switch s {
	case "a":
		return store.AllSets(), nil
	case "n":
		return store.NoSet(), nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return store.SetFilter{}, fmt.Errorf("bad filter %q", s)
	}
	return store.InSet(v), nil
}

func flag(v bool, on, off string) string {
	if v {
		return on
	}
	return off
}

func goal(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}
