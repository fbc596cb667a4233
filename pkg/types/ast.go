package types

// TimeUnit is the unit attached to decay rates and time-in-domain triggers.
// It is only a label; no calendar arithmetic is done with it.
type TimeUnit uint8

const (
	Day TimeUnit = iota
	Week
	Month
	Year
)

// String returns the singular keyword for the unit.
func (u TimeUnit) String() string {
	switch u {
	case Day:
		return "day"
	case Week:
		return "week"
	case Month:
		return "month"
	case Year:
		return "year"
	default:
		return "(unknown)"
	}
}

// LookupTimeUnit maps a singular or plural unit keyword to its TimeUnit.
func LookupTimeUnit(s string) (TimeUnit, bool) {
	switch s {
	case "day", "days":
		return Day, true
	case "week", "weeks":
		return Week, true
	case "month", "months":
		return Month, true
	case "year", "years":
		return Year, true
	default:
		return 0, false
	}
}

// KnowledgeLevel is the proficiency attached to a topic.
type KnowledgeLevel uint8

const (
	Beginner KnowledgeLevel = iota
	Intermediate
	Advanced
	Expert
)

func (l KnowledgeLevel) String() string {
	switch l {
	case Beginner:
		return "beginner"
	case Intermediate:
		return "intermediate"
	case Advanced:
		return "advanced"
	case Expert:
		return "expert"
	default:
		return "(unknown)"
	}
}

// LookupKnowledgeLevel maps a level keyword to its KnowledgeLevel.
func LookupKnowledgeLevel(s string) (KnowledgeLevel, bool) {
	switch s {
	case "beginner":
		return Beginner, true
	case "intermediate":
		return Intermediate, true
	case "advanced":
		return Advanced, true
	case "expert":
		return Expert, true
	default:
		return 0, false
	}
}

// Personality is the root of the AST. Values are treated as immutable:
// builders and optimizer passes return new values.
type Personality struct {
	Name      string
	Traits    []Trait
	Knowledge []KnowledgeDomain
	Behaviors []BehaviorRule
	Evolution []EvolutionRule
}

// Trait is a named personality attribute with a strength in [0, 1].
type Trait struct {
	Name      string
	Strength  float64
	Modifiers []Modifier
}

// Modifier is one of Decay, When, Unless, Amplifies or TransformsTo.
type Modifier interface {
	isModifier()
}

// Decay lowers the trait strength by Rate per Unit.
type Decay struct {
	Rate float64
	Unit TimeUnit
}

// When enhances the trait inside Context.
type When struct {
	Context Context
}

// Unless suppresses the trait outside Context.
type Unless struct {
	Context Context
}

// Amplifies multiplies another trait by Factor.
type Amplifies struct {
	Target string
	Factor float64
}

// TransformsTo shifts the trait into Target after Count periods.
type TransformsTo struct {
	Target string
	Factor float64
	Count  int
}

func (Decay) isModifier()        {}
func (When) isModifier()         {}
func (Unless) isModifier()       {}
func (Amplifies) isModifier()    {}
func (TransformsTo) isModifier() {}

// Context gates When/Unless modifiers.
type Context interface {
	isContext()
}

type (
	Topic          string
	Situation      string
	TimeOfDay      string
	EmotionalState string
)

func (Topic) isContext()          {}
func (Situation) isContext()      {}
func (TimeOfDay) isContext()      {}
func (EmotionalState) isContext() {}

// KnowledgeDomain is a named area of expertise.
type KnowledgeDomain struct {
	Name        string
	Topics      []TopicLevel
	Connections []Connection
}

// TopicLevel pairs a topic with the proficiency held in it.
type TopicLevel struct {
	Name  string
	Level KnowledgeLevel
}

// Connection is a directed edge between two knowledge domains.
type Connection struct {
	From          string
	To            string
	Strength      float64
	EvolutionRate *float64
}

// BehaviorRule pairs a condition with the action it triggers.
type BehaviorRule struct {
	Condition Condition
	Action    Action
}

// Condition is one of Tired, Motivated, ContextMatch, TraitAbove or TimeRange.
type Condition interface {
	isCondition()
}

type (
	Tired        struct{}
	Motivated    struct{}
	ContextMatch struct{ Value string }
	TraitAbove   struct {
		Trait     string
		Threshold float64
	}
	TimeRange struct{ Start, End string }
)

func (Tired) isCondition()        {}
func (Motivated) isCondition()    {}
func (ContextMatch) isCondition() {}
func (TraitAbove) isCondition()   {}
func (TimeRange) isCondition()    {}

// Action is one of Prefer, Seek, Avoid or SetStyle.
type Action interface {
	isAction()
}

type (
	Prefer   struct{ Value string }
	Seek     struct{ Value string }
	Avoid    struct{ Value string }
	SetStyle struct{ Key, Value string }
)

func (Prefer) isAction()   {}
func (Seek) isAction()     {}
func (Avoid) isAction()    {}
func (SetStyle) isAction() {}

// EvolutionRule pairs a trigger with the effect it applies.
type EvolutionRule struct {
	Trigger Trigger
	Effect  Effect
}

// Trigger is one of Learns, TimeInDomain, InteractionCount or FeedbackScore.
type Trigger interface {
	isTrigger()
}

type (
	Learns       struct{ Topic string }
	TimeInDomain struct {
		Domain string
		Unit   TimeUnit
		Count  int
	}
	InteractionCount struct{ Count int }
	FeedbackScore    struct{ Score float64 }
)

func (Learns) isTrigger()           {}
func (TimeInDomain) isTrigger()     {}
func (InteractionCount) isTrigger() {}
func (FeedbackScore) isTrigger()    {}

// Effect is one of TraitAdjust, UnlockDomain, AddConnection or NewBehavior.
type Effect interface {
	isEffect()
}

type (
	TraitAdjust struct {
		Trait string
		Delta float64
	}
	UnlockDomain  struct{ Domain string }
	AddConnection struct {
		From, To string
		Strength float64
	}
	NewBehavior struct{ Rule BehaviorRule }
)

func (TraitAdjust) isEffect()   {}
func (UnlockDomain) isEffect()  {}
func (AddConnection) isEffect() {}
func (NewBehavior) isEffect()   {}

// FindTrait returns the trait with the given name.
func (p *Personality) FindTrait(name string) (Trait, bool) {
	for _, t := range p.Traits {
		if t.Name == name {
			return t, true
		}
	}
	return Trait{}, false
}

// TraitNames returns the set of trait names.
func (p *Personality) TraitNames() map[string]bool {
	names := make(map[string]bool, len(p.Traits))
	for _, t := range p.Traits {
		names[t.Name] = true
	}
	return names
}

// DomainNames returns the set of knowledge domain names.
func (p *Personality) DomainNames() map[string]bool {
	names := make(map[string]bool, len(p.Knowledge))
	for _, d := range p.Knowledge {
		names[d.Name] = true
	}
	return names
}

// Connections returns every connection of every domain, in declaration order.
func (p *Personality) Connections() []Connection {
	var out []Connection
	for _, d := range p.Knowledge {
		out = append(out, d.Connections...)
	}
	return out
}
