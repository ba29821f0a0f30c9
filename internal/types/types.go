// Package types implements the Nano type system: the type and
// type-variable model, the inference environment with unification and
// generalisation, pattern and pipeline typing, exhaustiveness checking,
// and the typed AST produced by inference.
package types

import (
	"github.com/nanoofficial/nano/internal/ast"
	"github.com/nanoofficial/nano/internal/uplc"
)

// Type is a source-language type: an applied constructor, a function, a
// mutable type variable, or a tuple.
type Type interface {
	typeNode()
}

// App is an applied type constructor. The name resolves through the
// environment to a TypeConstructor of matching arity.
type App struct {
	Public bool
	Module string
	Name   string
	Args   []Type
}

// Fn is a function type.
type Fn struct {
	Args []Type
	Ret  Type
}

// Var is a mutable type variable; the cell is shared between every
// occurrence of the variable.
type Var struct {
	Cell *TypeVarCell
}

// Tuple is a tuple type.
type Tuple struct {
	Elems []Type
}

func (*App) typeNode()   {}
func (*Fn) typeNode()    {}
func (*Var) typeNode()   {}
func (*Tuple) typeNode() {}

// TypeVarCell is the interior-mutable unification cell. It is created
// Unbound, may be linked by unification, and becomes Generic after
// generalisation.
type TypeVarCell struct {
	State TypeVar
}

// TypeVar is the three-state content of a cell.
type TypeVar interface {
	typeVarNode()
}

// Unbound is a solver-visible polymorphic variable.
type Unbound struct {
	ID uint64
}

// Link forwards to another type; readers chase links transparently.
type Link struct {
	To Type
}

// Generic is a rigid, universally quantified variable.
type Generic struct {
	ID uint64
}

func (Unbound) typeVarNode() {}
func (Link) typeVarNode()    {}
func (Generic) typeVarNode() {}

// NewUnbound creates a fresh unbound variable with the given id.
func NewUnbound(id uint64) Type {
	return &Var{Cell: &TypeVarCell{State: Unbound{ID: id}}}
}

// NewGeneric creates a generic variable with the given id.
func NewGeneric(id uint64) Type {
	return &Var{Cell: &TypeVarCell{State: Generic{ID: id}}}
}

// Follow resolves Link chains, path-compressing as it goes, and returns
// the representative type. Non-variable types come back unchanged.
func Follow(t Type) Type {
	v, ok := t.(*Var)
	if !ok {
		return t
	}
	link, ok := v.Cell.State.(Link)
	if !ok {
		return t
	}
	resolved := Follow(link.To)
	v.Cell.State = Link{To: resolved}
	return resolved
}

// IsUnbound reports whether the type is an unbound variable.
func IsUnbound(t Type) bool {
	v, ok := Follow(t).(*Var)
	if !ok {
		return false
	}
	_, unbound := v.Cell.State.(Unbound)
	return unbound
}

// IsGeneric reports whether the type is a generic variable.
func IsGeneric(t Type) bool {
	v, ok := Follow(t).(*Var)
	if !ok {
		return false
	}
	_, generic := v.Cell.State.(Generic)
	return generic
}

// IsFunction reports whether the type is a function.
func IsFunction(t Type) bool {
	_, ok := Follow(t).(*Fn)
	return ok
}

func isNamedApp(t Type, name string) bool {
	app, ok := Follow(t).(*App)
	return ok && app.Module == "" && app.Name == name
}

// IsInt reports whether the type is the prelude Int.
func IsInt(t Type) bool { return isNamedApp(t, "Int") }

// IsBool reports whether the type is the prelude Bool.
func IsBool(t Type) bool { return isNamedApp(t, "Bool") }

// IsByteArray reports whether the type is the prelude ByteArray.
func IsByteArray(t Type) bool { return isNamedApp(t, "ByteArray") }

// IsString reports whether the type is the prelude String.
func IsString(t Type) bool { return isNamedApp(t, "String") }

// IsVoid reports whether the type is the prelude Void.
func IsVoid(t Type) bool { return isNamedApp(t, "Void") }

// IsData reports whether the type is the prelude Data.
func IsData(t Type) bool { return isNamedApp(t, "Data") }

// IsList reports whether the type is the prelude List.
func IsList(t Type) bool { return isNamedApp(t, "List") }

// IsMap reports whether the type is a List of 2-tuples, the shape lowered
// as a pair list. An unbound element type is not a map; classification
// uses the most concrete information available at lowering time.
func IsMap(t Type) bool {
	app, ok := Follow(t).(*App)
	if !ok || app.Module != "" || app.Name != "List" || len(app.Args) != 1 {
		return false
	}
	tuple, ok := Follow(app.Args[0]).(*Tuple)
	return ok && len(tuple.Elems) == 2
}

// ArgTypes returns the argument types of a function type, or nil.
func ArgTypes(t Type) []Type {
	if fn, ok := Follow(t).(*Fn); ok {
		return fn.Args
	}
	return nil
}

// ReturnType returns the result type of a function type, or nil.
func ReturnType(t Type) Type {
	if fn, ok := Follow(t).(*Fn); ok {
		return fn.Ret
	}
	return nil
}

// Arity returns the number of arguments a function type takes, or 0.
func Arity(t Type) int {
	return len(ArgTypes(t))
}

// TypeArgs returns the arguments of an applied constructor, or nil.
func TypeArgs(t Type) []Type {
	if app, ok := Follow(t).(*App); ok {
		return app.Args
	}
	return nil
}

// GenericIDs collects the ids of every generic variable in the type.
func GenericIDs(t Type) []uint64 {
	var out []uint64
	var walk func(Type)
	walk = func(t Type) {
		switch t := Follow(t).(type) {
		case *App:
			for _, arg := range t.Args {
				walk(arg)
			}
		case *Fn:
			for _, arg := range t.Args {
				walk(arg)
			}
			walk(t.Ret)
		case *Tuple:
			for _, elem := range t.Elems {
				walk(elem)
			}
		case *Var:
			if g, ok := t.Cell.State.(Generic); ok {
				out = append(out, g.ID)
			}
		}
	}
	walk(t)
	return out
}

// GetUplcType maps a source type to the UPLC constant type it erases to.
// Everything user-defined is Data on the wire; a List of 2-tuples is a
// pair list.
func GetUplcType(t Type) uplc.Typ {
	switch {
	case IsInt(t):
		return uplc.TInteger{}
	case IsBool(t):
		return uplc.TBool{}
	case IsByteArray(t):
		return uplc.TByteString{}
	case IsString(t):
		return uplc.TString{}
	case IsVoid(t):
		return uplc.TUnit{}
	case IsMap(t):
		return uplc.TList{Typ: uplc.TPair{First: uplc.TData{}, Second: uplc.TData{}}}
	case IsList(t):
		return uplc.TList{Typ: uplc.TData{}}
	default:
		if tuple, ok := Follow(t).(*Tuple); ok && len(tuple.Elems) == 2 {
			return uplc.TPair{First: uplc.TData{}, Second: uplc.TData{}}
		}
		return uplc.TData{}
	}
}

// Helper constructors for the prelude types.

func IntType() Type       { return &App{Public: true, Name: "Int"} }
func BoolType() Type      { return &App{Public: true, Name: "Bool"} }
func ByteArrayType() Type { return &App{Public: true, Name: "ByteArray"} }
func StringType() Type    { return &App{Public: true, Name: "String"} }
func VoidType() Type      { return &App{Public: true, Name: "Void"} }
func DataValueType() Type { return &App{Public: true, Name: "Data"} }

func ListType(elem Type) Type {
	return &App{Public: true, Name: "List", Args: []Type{elem}}
}

func OptionType(elem Type) Type {
	return &App{Public: true, Name: "Option", Args: []Type{elem}}
}

func FunctionType(args []Type, ret Type) Type {
	return &Fn{Args: args, Ret: ret}
}

func TupleType(elems ...Type) Type {
	return &Tuple{Elems: elems}
}

// TypeConstructor records a registered type head: its parameters and the
// type it constructs. Constructors that mention their own type resolve
// through the environment, never through an owning graph.
type TypeConstructor struct {
	Location   ast.Span
	Module     string
	Public     bool
	Parameters []Type
	Tipo       Type
}

// ValueConstructorVariant describes where a value comes from.
type ValueConstructorVariant interface {
	variantNode()
}

// VariantLocalVariable is a let- or argument-bound variable.
type VariantLocalVariable struct {
	Location ast.Span
}

// VariantModuleConstant is a module-level constant.
type VariantModuleConstant struct {
	Location ast.Span
	Module   string
	Literal  ast.Constant
}

// VariantModuleFn is a module-level function, possibly backed by a
// builtin.
type VariantModuleFn struct {
	Name     string
	Module   string
	Arity    int
	FieldMap *FieldMap
	Location ast.Span
	Builtin  *uplc.DefaultFunction
}

// VariantRecord is a data-type constructor.
type VariantRecord struct {
	Name              string
	Module            string
	Arity             int
	FieldMap          *FieldMap
	Location          ast.Span
	ConstructorsCount int
}

func (VariantLocalVariable) variantNode()  {}
func (VariantModuleConstant) variantNode() {}
func (VariantModuleFn) variantNode()       {}
func (VariantRecord) variantNode()         {}

// ValueConstructor attaches a variant and a type to a name in scope.
type ValueConstructor struct {
	Public  bool
	Variant ValueConstructorVariant
	Tipo    Type
}

// PublicValue builds a public value constructor.
func PublicValue(tipo Type, variant ValueConstructorVariant) *ValueConstructor {
	return &ValueConstructor{Public: true, Variant: variant, Tipo: tipo}
}

// LocalVariable builds the constructor recorded for a local binding.
func LocalVariable(tipo Type, location ast.Span) *ValueConstructor {
	return &ValueConstructor{
		Variant: VariantLocalVariable{Location: location},
		Tipo:    tipo,
	}
}

// DefinitionLocation returns the span where the value was defined.
func (v *ValueConstructor) DefinitionLocation() ast.Span {
	switch variant := v.Variant.(type) {
	case VariantLocalVariable:
		return variant.Location
	case VariantModuleConstant:
		return variant.Location
	case VariantModuleFn:
		return variant.Location
	case VariantRecord:
		return variant.Location
	}
	return ast.Span{}
}

// FieldMap returns the variant's field map, or nil.
func (v *ValueConstructor) FieldMap() *FieldMap {
	switch variant := v.Variant.(type) {
	case VariantModuleFn:
		return variant.FieldMap
	case VariantRecord:
		return variant.FieldMap
	}
	return nil
}

// PatternConstructor mirrors ValueConstructor for typed patterns.
type PatternConstructor struct {
	Name    string
	Variant ValueConstructorVariant
	Tipo    Type
}

// RecordAccessor projects one field of a single-constructor record.
type RecordAccessor struct {
	Label string
	Index int
	Tipo  Type
}

// AccessorsMap carries the accessors of a single-constructor record type.
type AccessorsMap struct {
	Public    bool
	Tipo      Type
	Accessors map[string]RecordAccessor
}

// TypeInfo is the public interface of a fully typed module.
type TypeInfo struct {
	Name              string
	Kind              ast.ModuleKind
	Package           string
	Types             map[string]*TypeConstructor
	TypesConstructors map[string][]string
	Values            map[string]*ValueConstructor
	Accessors         map[string]*AccessorsMap
}
