package testutil

import (
	"testing"

	"github.com/leapstack-labs/leapql/pkg/domain"
)

// DomainMapping returns the fixture mapping:
//
//	Something(id, basic, basic1, basic2, entity -> Entity, list -> [Entity],
//	          others -> [Other] via something_other, otherByCode -> Other by code,
//	          address{street, city}, code on optional secondary table something_ext)
//	Entity(id, basic1, basic2, name, other -> Other), discriminator dtype='E'
//	Other(id, label, code)
func DomainMapping() domain.Mapping {
	return domain.Mapping{
		Entities: []domain.EntityMapping{
			{
				Name:  "Something",
				Table: "something",
				ID:    domain.AttributeMapping{Name: "id", Column: "id", Type: "integer"},
				SecondaryTables: []domain.SecondaryTableMapping{
					{Name: "something_ext", Optional: true, Key: []string{"something_id"}},
				},
				Attributes: []domain.AttributeMapping{
					{Name: "basic", Column: "basic", Type: "integer"},
					{Name: "basic1", Column: "basic1", Type: "integer"},
					{Name: "basic2", Column: "basic2", Type: "varchar"},
					{Name: "entity", Kind: "entity", Target: "Entity", Column: "entity_id", Optional: true},
					{Name: "list", Kind: "collection", Target: "Entity", Key: []string{"something_id"}, IndexColumn: "idx"},
					{Name: "others", Kind: "collection", Target: "Other", JoinTable: &domain.JoinTableMapping{
						Name: "something_other", Owner: []string{"something_id"}, Element: []string{"other_id"},
					}},
					{Name: "otherByCode", Kind: "entity", Target: "Other", Column: "other_code", References: "code", Optional: true},
					{Name: "address", Kind: "embedded", Components: []domain.AttributeMapping{
						{Name: "street", Column: "street", Type: "varchar"},
						{Name: "city", Column: "city", Type: "varchar"},
					}},
					{Name: "code", Column: "code", Type: "varchar", Table: "something_ext"},
				},
			},
			{
				Name:          "Entity",
				Table:         "entity",
				ID:            domain.AttributeMapping{Name: "id", Column: "id", Type: "integer"},
				Discriminator: &domain.DiscriminatorMapping{Column: "dtype", Value: "E"},
				Attributes: []domain.AttributeMapping{
					{Name: "basic1", Column: "basic1", Type: "integer"},
					{Name: "basic2", Column: "basic2", Type: "integer"},
					{Name: "name", Column: "name", Type: "varchar"},
					{Name: "other", Kind: "entity", Target: "Other", Column: "other_id"},
				},
			},
			{
				Name:  "Other",
				Table: "other",
				ID:    domain.AttributeMapping{Name: "id", Column: "id", Type: "integer"},
				Attributes: []domain.AttributeMapping{
					{Name: "label", Column: "label", Type: "varchar"},
					{Name: "code", Column: "code", Type: "varchar"},
				},
			},
		},
		Constants: map[string]domain.ConstantMapping{
			"Status.ACTIVE":   {Value: 1, Type: "integer"},
			"Status.INACTIVE": {Value: 0, Type: "integer"},
		},
	}
}

// NewDomainModel builds the fixture model, failing the test on error.
func NewDomainModel(t testing.TB) *domain.Model {
	t.Helper()
	m, err := domain.NewModel(DomainMapping())
	if err != nil {
		t.Fatalf("fixture domain model: %v", err)
	}
	return m
}
