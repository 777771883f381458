package enum

// Scenario identifies which transaction source a document was generated from.
type Scenario string

const (
	ScenarioOrder        Scenario = "order"
	ScenarioSubscription Scenario = "subscription"
)

func (s Scenario) IsValid() bool {
	return s == ScenarioOrder || s == ScenarioSubscription
}

func (s Scenario) String() string {
	return string(s)
}
