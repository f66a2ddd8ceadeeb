package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseflow/internal/workflow"
)

func TestDefaultCoversAllEntityTypes(t *testing.T) {
	c := Default()
	for _, et := range []workflow.EntityType{
		workflow.EntityIndividualAccount, workflow.EntityJointAccount,
		workflow.EntityCorporate, workflow.EntityPartnership, workflow.EntityTrust,
	} {
		links, err := c.DocumentLinksFor(et)
		require.NoError(t, err, "entity type %s", et)
		assert.NotEmpty(t, links)

		// Every entity type carries at least one deferred account-forms
		// requirement for the activation gate.
		hasAccountForm := false
		for _, l := range links {
			if l.Section == workflow.SectionAccountForms {
				hasAccountForm = true
			}
		}
		assert.True(t, hasAccountForm, "entity type %s has no account forms", et)
	}

	require.NoError(t, Default().validate())
}

func TestParse(t *testing.T) {
	t.Run("valid catalog", func(t *testing.T) {
		c, err := Parse([]byte(`
requirements:
  corporate:
    - id: certificate-of-incorporation
      type: corporate
      section: corporate
      mandatory: true
    - id: audited-financials
      type: financial
      section: financial
      mandatory: false
`))
		require.NoError(t, err)

		links, err := c.DocumentLinksFor(workflow.EntityCorporate)
		require.NoError(t, err)
		require.Len(t, links, 2)
		assert.True(t, links[0].IsMandatory)
		assert.False(t, links[1].IsMandatory)
	})

	t.Run("empty payload", func(t *testing.T) {
		_, err := Parse([]byte("  \n"))
		assert.Error(t, err)
	})

	t.Run("unknown entity type", func(t *testing.T) {
		_, err := Parse([]byte(`
requirements:
  sole-trader:
    - id: passport
      section: identity
`))
		assert.ErrorContains(t, err, "unknown entity type")
	})

	t.Run("duplicate requirement id", func(t *testing.T) {
		_, err := Parse([]byte(`
requirements:
  corporate:
    - id: passport
      section: identity
    - id: passport
      section: identity
`))
		assert.ErrorContains(t, err, "duplicate requirement")
	})

	t.Run("missing section", func(t *testing.T) {
		_, err := Parse([]byte(`
requirements:
  corporate:
    - id: passport
`))
		assert.ErrorContains(t, err, "no section")
	})
}

func TestDocumentLinksForUnknownEntityType(t *testing.T) {
	c := &Catalog{Requirements: map[workflow.EntityType][]Requirement{}}
	_, err := c.DocumentLinksFor(workflow.EntityTrust)
	assert.Error(t, err)
}
