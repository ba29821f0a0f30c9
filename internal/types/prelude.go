package types

import (
	"github.com/nanoofficial/nano/internal/ast"
	"github.com/nanoofficial/nano/internal/idgen"
)

// Prelude builds the implicit module every Nano module can see: the
// primitive types plus the Bool, Void and Option constructors.
func Prelude(idGen *idgen.Generator) *TypeInfo {
	prelude := &TypeInfo{
		Name:              "",
		Kind:              ast.ModuleKindLib,
		Types:             map[string]*TypeConstructor{},
		TypesConstructors: map[string][]string{},
		Values:            map[string]*ValueConstructor{},
		Accessors:         map[string]*AccessorsMap{},
	}

	for _, primitive := range []struct {
		name string
		tipo Type
	}{
		{"Int", IntType()},
		{"ByteArray", ByteArrayType()},
		{"String", StringType()},
		{"Bool", BoolType()},
		{"Void", VoidType()},
		{"Data", DataValueType()},
	} {
		prelude.Types[primitive.name] = &TypeConstructor{
			Public: true,
			Tipo:   primitive.tipo,
		}
	}

	listParam := NewGeneric(idGen.Next())
	prelude.Types["List"] = &TypeConstructor{
		Public:     true,
		Parameters: []Type{listParam},
		Tipo:       ListType(listParam),
	}

	optionParam := NewGeneric(idGen.Next())
	prelude.Types["Option"] = &TypeConstructor{
		Public:     true,
		Parameters: []Type{optionParam},
		Tipo:       OptionType(optionParam),
	}

	prelude.TypesConstructors["Bool"] = []string{"True", "False"}
	prelude.TypesConstructors["Void"] = []string{"Void"}
	prelude.TypesConstructors["Option"] = []string{"Some", "None"}

	for _, name := range []string{"True", "False"} {
		prelude.Values[name] = PublicValue(BoolType(), VariantRecord{
			Name:              name,
			Arity:             0,
			ConstructorsCount: 2,
		})
	}
	prelude.Values["Void"] = PublicValue(VoidType(), VariantRecord{
		Name:              "Void",
		Arity:             0,
		ConstructorsCount: 1,
	})

	someParam := NewGeneric(idGen.Next())
	prelude.Values["Some"] = PublicValue(
		FunctionType([]Type{someParam}, OptionType(someParam)),
		VariantRecord{Name: "Some", Arity: 1, ConstructorsCount: 2},
	)
	noneParam := NewGeneric(idGen.Next())
	prelude.Values["None"] = PublicValue(OptionType(noneParam), VariantRecord{
		Name:              "None",
		Arity:             0,
		ConstructorsCount: 2,
	})

	return prelude
}
