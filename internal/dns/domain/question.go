package domain

import "fmt"

// Question represents one entry of a DNS message's question section.
type Question struct {
	Name  string
	Type  RRType
	Class RRClass
}

// NewQuestion constructs a Question and validates its fields.
func NewQuestion(name string, rrtype RRType, class RRClass) (Question, error) {
	q := Question{
		Name:  name,
		Type:  rrtype,
		Class: class,
	}
	if err := q.Validate(); err != nil {
		return Question{}, err
	}
	return q, nil
}

// Validate checks whether the Question fields are structurally valid.
// Unknown record types are deliberately allowed: a query for a type we do
// not serve is answered per the existing-name rule, not rejected.
func (q Question) Validate() error {
	if q.Name == "" {
		return fmt.Errorf("question name must not be empty")
	}
	if !q.Class.IsValid() {
		return fmt.Errorf("unsupported RRClass: %d", q.Class)
	}
	return nil
}

// Key returns a lookup key string derived from the question's name, type, and class.
func (q Question) Key() string {
	return LookupKey(q.Name, q.Type, q.Class)
}
