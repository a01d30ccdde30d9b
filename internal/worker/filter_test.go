package worker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/prudhvinik1/crmsync/internal/models"
)

func TestFilterProperties_RemovesEmptyAndPlaceholders(t *testing.T) {
	input := map[string]models.PropertyValue{
		"name":        models.StringProperty("Acme"),
		"empty":       models.StringProperty(""),
		"placeholder": models.StringProperty("Placeholder"),
		"na":          models.StringProperty("N/A"),
		"not_set":     models.StringProperty("NOT SET"),
		"unknown":     models.StringProperty("[[unknown]]"),
		"zero_time":   models.TimeProperty(time.Time{}),
		"score":       models.NumberProperty(0),
		"when":        models.TimeProperty(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)),
	}

	filtered := FilterProperties(input)

	assert.Len(t, filtered, 3)
	assert.Contains(t, filtered, "name")
	assert.Contains(t, filtered, "score", "numeric zero is a real value")
	assert.Contains(t, filtered, "when")
}

func TestFilterProperties_Idempotent(t *testing.T) {
	input := map[string]models.PropertyValue{
		"name":  models.StringProperty("Acme"),
		"blank": models.StringProperty(""),
		"bad":   models.StringProperty("not provided"),
	}

	once := FilterProperties(input)
	twice := FilterProperties(once)

	assert.Equal(t, once, twice)
}

func TestNormalizePropertyName(t *testing.T) {
	cases := map[string]string{
		"Custom_Field__c":      "custom_field",
		"__lead__source__":     "lead_source",
		"HS_Analytics__Source": "hs_analytics_source",
		"plain":                "plain",
	}

	for input, want := range cases {
		assert.Equal(t, want, NormalizePropertyName(input), "input %q", input)
	}
}
