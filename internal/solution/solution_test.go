package solution

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/ormsynth/internal/schema"
)

func TestDecodeFile(t *testing.T) {
	sol, err := DecodeFile("testdata/bank_solution.xml")
	require.NoError(t, err)

	assert.Equal(t, "testdata/bank_solution.xml", sol.Source)

	var names []string
	for _, c := range sol.Classes {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"seq/Int", "Int", "this/Account", "this/Customer", "this/Branch"}, names)

	assert.Equal(t, []string{"id", "balance"}, sol.Classes[2].Fields)
	assert.Equal(t, []string{"CustomerID", "name"}, sol.Classes[3].Fields, "top-level fields attach by parentID")
	assert.Empty(t, sol.Classes[4].Fields)
	assert.Len(t, sol.Facts, 4)

	assert.True(t, sol.Classes[0].Builtin)
	assert.True(t, sol.Classes[1].Builtin)
	assert.False(t, sol.Classes[2].Builtin)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		element string
	}{
		{name: "empty", doc: "", element: "document"},
		{name: "not xml", doc: "Bank solution 1", element: "document"},
		{name: "truncated", doc: `<alloy><instance><sig label="this/A">`, element: "document"},
		{name: "wrong root", doc: `<solution/>`, element: "document"},
		{name: "sig without label", doc: `<alloy><sig ID="3"/></alloy>`, element: "sig"},
		{name: "fact without label", doc: `<alloy><fact/></alloy>`, element: "fact"},
		{name: "dangling field", doc: `<alloy><sig label="this/A" ID="1"/><field label="x" parentID="9"/></alloy>`, element: "field"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))

			var pe *ParseError
			require.True(t, errors.As(err, &pe), "got %v, want *ParseError", err)
			assert.Equal(t, tt.element, pe.Element)
		})
	}
}

func TestAdaptAccountCustomer(t *testing.T) {
	sol := &Solution{
		Classes: []ClassDescriptor{
			{Name: "Account", Fields: []string{"id", "balance"}},
			{Name: "Customer", Fields: []string{"id", "name"}},
		},
		Facts: []AssociationFact{{Label: "Association_Account_Customer"}},
	}

	g, discards := Adapt("Bank", 1, sol)
	assert.Empty(t, discards)
	require.NoError(t, g.Validate())

	require.Len(t, g.Entities, 2)
	require.Len(t, g.Associations, 1)

	a := g.Associations[0]
	assert.Equal(t, "Account", a.Source)
	assert.Equal(t, "Customer", a.Target)
	assert.Equal(t, "FK_Account_Customer_idx", a.ConstraintName)
	assert.Equal(t, "CustomerID", a.Column)

	account := g.Entities[0]
	assert.Equal(t, "id", account.PrimaryKey)
	col, ok := account.Column("CustomerID")
	require.True(t, ok, "foreign key column added to source")
	assert.Equal(t, schema.TypeInteger, col.Type)

	balance, _ := account.Column("balance")
	assert.Equal(t, schema.TypeString, balance.Type)
}

func TestAdaptStringPrimaryKey(t *testing.T) {
	sol := &Solution{
		Classes: []ClassDescriptor{
			{Name: "this/Account", Fields: []string{"number", "balance"}},
			{Name: "this/Customer", Fields: []string{"name", "email"}},
		},
		Facts: []AssociationFact{{Label: "this/Association_Account_Customer"}},
	}

	g, discards := Adapt("Bank", 1, sol)
	assert.Empty(t, discards)
	require.NoError(t, g.Validate())
	require.Len(t, g.Associations, 1)

	customer, _ := g.Entity("Customer")
	key, _ := customer.Column(customer.PrimaryKey)
	require.Equal(t, schema.TypeString, key.ResolvedType())

	account, _ := g.Entity("Account")
	col, ok := account.Column("CustomerID")
	require.True(t, ok)
	assert.Equal(t, schema.TypeString, col.ResolvedType(), "foreign key column takes the referenced key type")
}

func TestAdaptDiscardsMismatchedColumn(t *testing.T) {
	sol := &Solution{
		Classes: []ClassDescriptor{
			{Name: "this/Account", Fields: []string{"number", "CustomerID"}},
			{Name: "this/Customer", Fields: []string{"name"}},
		},
		Facts: []AssociationFact{{Label: "this/Association_Account_Customer"}},
	}

	g, discards := Adapt("Bank", 1, sol)
	require.NoError(t, g.Validate())
	assert.Empty(t, g.Associations)
	require.Len(t, discards, 1)
	assert.Contains(t, discards[0].Reason, "CustomerID")
}

func TestAdaptDiscardsBuiltinSigs(t *testing.T) {
	sol := &Solution{
		Classes: []ClassDescriptor{
			{Name: "seq/Int2", Builtin: true},
			{Name: "Ext", Builtin: true},
			{Name: "this/Account", Fields: []string{"id"}},
		},
	}

	g, discards := Adapt("Bank", 1, sol)
	require.Len(t, g.Entities, 1)
	assert.Equal(t, "Account", g.Entities[0].Name)
	require.Len(t, discards, 2)
	for _, d := range discards {
		assert.Equal(t, "builtin signature", d.Reason)
	}
}

func TestAdaptDiscardsUnknownTarget(t *testing.T) {
	sol := &Solution{
		Classes: []ClassDescriptor{
			{Name: "this/Account", Fields: []string{"id", "balance"}},
		},
		Facts: []AssociationFact{{Label: "this/Association_Account_Customer"}},
	}

	g, discards := Adapt("Bank", 1, sol)
	assert.Empty(t, g.Associations)
	require.Len(t, discards, 1)
	assert.Contains(t, discards[0].Reason, "Customer")
	require.NoError(t, g.Validate())
}

func TestAdaptFilters(t *testing.T) {
	sol := &Solution{
		Classes: []ClassDescriptor{
			{Name: "this/Account"},
			{Name: "this/Account$0"},
			{Name: "seq/Int"},
			{Name: "univ"},
			{Name: "util/ordering/Ord"},
			{Name: "this/Customer", Fields: []string{"number", "name", "number"}},
			{Name: "this/Account", Fields: []string{"other"}},
		},
		Facts: []AssociationFact{
			{Label: "this/Association"},
			{Label: "this/Association_Account"},
			{Label: "this/Association_Account_Account"},
			{Label: "this/Ownership_Account_Customer"},
			{Label: "this/Association_Account_Customer"},
			{Label: "this/Association_Account_Customer"},
		},
	}

	g, discards := Adapt("Bank", 2, sol)
	require.NoError(t, g.Validate())

	require.Len(t, g.Entities, 2)
	account, customer := g.Entities[0], g.Entities[1]

	assert.Equal(t, "Account", account.Name)
	assert.Equal(t, "id", account.PrimaryKey, "empty field list gets a synthesized key")

	assert.Equal(t, "number", customer.PrimaryKey, "first field is the key")
	assert.Len(t, customer.Columns, 2, "duplicate fields dropped")

	require.Len(t, g.Associations, 2)
	assert.Equal(t, "FK_Account_Customer_idx", g.Associations[0].ConstraintName)
	assert.Equal(t, "FK_Account_Customer_idx_2", g.Associations[1].ConstraintName)

	// 4 non-model classes, 1 duplicate class, 4 rejected facts
	assert.Len(t, discards, 9)
}

func TestDecodeAndAdapt(t *testing.T) {
	sol, err := DecodeFile("testdata/bank_solution.xml")
	require.NoError(t, err)

	g, discards := Adapt("Bank", 1, sol)
	require.NoError(t, g.Validate())

	var names []string
	for _, e := range g.Entities {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"Account", "Customer", "Branch"}, names)
	assert.Len(t, g.Associations, 2)
	assert.Len(t, discards, 4)

	customer, _ := g.Entity("Customer")
	assert.Equal(t, "CustomerID", customer.PrimaryKey)
	_, ok := customer.Column("BranchID")
	assert.True(t, ok)
}
