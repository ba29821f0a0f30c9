package types

import (
	"sort"

	"github.com/nanoofficial/nano/internal/ast"
	"github.com/nanoofficial/nano/internal/idgen"
)

// EntityKind classifies a tracked binding for unused-entity warnings.
type EntityKind int

const (
	EntityPrivateConstant EntityKind = iota
	EntityImportedConstructor
	EntityImportedType
	EntityImportedTypeAndConstructor
	EntityImportedValue
	EntityPrivateFunction
	EntityPrivateType
	EntityPrivateTypeConstructor
	EntityVariable
)

type entityUsage struct {
	kind     EntityKind
	location ast.Span
	used     bool
}

type importedModule struct {
	location ast.Span
	info     *TypeInfo
}

// ScopeResetData snapshots the value scope so CloseScope can restore it.
type ScopeResetData struct {
	localValues map[string]*ValueConstructor
}

// Environment carries everything inference knows about the module being
// typed: resolved names, registered types, usage tracking, and the shared
// id generator.
type Environment struct {
	Accessors                map[string]*AccessorsMap
	CurrentModule            string
	IDGen                    *idgen.Generator
	ImportableModules        map[string]*TypeInfo
	ImportedModules          map[string]importedModule
	ImportedTypes            map[string]bool
	ModuleTypes              map[string]*TypeConstructor
	ModuleTypesConstructors  map[string][]string
	ModuleValues             map[string]*ValueConstructor
	Scope                    map[string]*ValueConstructor
	UngeneralisedFunctions   map[string]bool
	UnqualifiedImportedNames map[string]ast.Span
	UnusedModules            map[string]ast.Span
	Warnings                 *[]Warning

	entityUsages []map[string]*entityUsage
}

// NewEnvironment creates an environment seeded with the prelude scope.
func NewEnvironment(
	idGen *idgen.Generator,
	currentModule string,
	importableModules map[string]*TypeInfo,
	warnings *[]Warning,
) *Environment {
	prelude := importableModules[""]
	env := &Environment{
		Accessors:                map[string]*AccessorsMap{},
		CurrentModule:            currentModule,
		IDGen:                    idGen,
		ImportableModules:        importableModules,
		ImportedModules:          map[string]importedModule{},
		ImportedTypes:            map[string]bool{},
		ModuleTypes:              map[string]*TypeConstructor{},
		ModuleTypesConstructors:  map[string][]string{},
		ModuleValues:             map[string]*ValueConstructor{},
		Scope:                    map[string]*ValueConstructor{},
		UngeneralisedFunctions:   map[string]bool{},
		UnqualifiedImportedNames: map[string]ast.Span{},
		UnusedModules:            map[string]ast.Span{},
		Warnings:                 warnings,
		entityUsages:             []map[string]*entityUsage{{}},
	}
	if prelude != nil {
		for name, tc := range prelude.Types {
			env.ModuleTypes[name] = tc
		}
		for name, constructors := range prelude.TypesConstructors {
			env.ModuleTypesConstructors[name] = constructors
		}
		for name, value := range prelude.Values {
			env.Scope[name] = value
		}
	}
	return env
}

// NewUnboundVar mints a fresh unbound type variable.
func (e *Environment) NewUnboundVar() Type {
	return NewUnbound(e.IDGen.Next())
}

// NewGenericVar mints a fresh generic type variable.
func (e *Environment) NewGenericVar() Type {
	return NewGeneric(e.IDGen.Next())
}

// OpenNewScope snapshots the local scope and opens a usage level.
func (e *Environment) OpenNewScope() ScopeResetData {
	localValues := make(map[string]*ValueConstructor, len(e.Scope))
	for name, value := range e.Scope {
		localValues[name] = value
	}
	e.entityUsages = append(e.entityUsages, map[string]*entityUsage{})
	return ScopeResetData{localValues: localValues}
}

// CloseScope restores the snapshot and reports unused entities of the
// closed level.
func (e *Environment) CloseScope(data ScopeResetData) {
	usages := e.entityUsages[len(e.entityUsages)-1]
	e.entityUsages = e.entityUsages[:len(e.entityUsages)-1]
	e.convertUnusedToWarnings(usages)
	e.Scope = data.localValues
}

// InNewScope runs fn inside a fresh scope.
func (e *Environment) InNewScope(fn func() error) error {
	data := e.OpenNewScope()
	err := fn()
	e.CloseScope(data)
	return err
}

// InsertVariable binds a name in the local scope.
func (e *Environment) InsertVariable(name string, variant ValueConstructorVariant, tipo Type) {
	e.Scope[name] = &ValueConstructor{Variant: variant, Tipo: tipo}
}

// InsertModuleValue registers a module-level value.
func (e *Environment) InsertModuleValue(name string, value *ValueConstructor) {
	e.ModuleValues[name] = value
}

// InsertType registers a type constructor, rejecting duplicates.
func (e *Environment) InsertType(name string, tc *TypeConstructor, location ast.Span) error {
	if previous, ok := e.ModuleTypes[name]; ok {
		return &DuplicateTypeNameError{
			Name:             name,
			Location:         location,
			PreviousLocation: previous.Location,
		}
	}
	e.ModuleTypes[name] = tc
	return nil
}

// InsertTypeToConstructors records the constructor names of a type.
func (e *Environment) InsertTypeToConstructors(name string, constructors []string) {
	e.ModuleTypesConstructors[name] = constructors
}

// InsertAccessors registers a record's accessor map.
func (e *Environment) InsertAccessors(name string, accessors *AccessorsMap) {
	e.Accessors[name] = accessors
}

// InitUsage starts tracking a binding at the innermost level; an entry of
// the same name already at that level is replaced without a warning.
func (e *Environment) InitUsage(name string, kind EntityKind, location ast.Span) {
	level := e.entityUsages[len(e.entityUsages)-1]
	level[name] = &entityUsage{kind: kind, location: location}
}

// IncrementUsage marks a binding used in the nearest level that tracks it.
func (e *Environment) IncrementUsage(name string) {
	for i := len(e.entityUsages) - 1; i >= 0; i-- {
		if usage, ok := e.entityUsages[i][name]; ok {
			usage.used = true
			return
		}
	}
}

// convertUnusedToWarnings emits unused-binding warnings for a closed
// level. Imported and private types are exempt: types have legitimate
// phantom uses.
func (e *Environment) convertUnusedToWarnings(usages map[string]*entityUsage) {
	names := make([]string, 0, len(usages))
	for name := range usages {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		usage := usages[name]
		if usage.used {
			continue
		}
		switch usage.kind {
		case EntityImportedType, EntityImportedTypeAndConstructor, EntityPrivateType:
			continue
		case EntityImportedConstructor:
			*e.Warnings = append(*e.Warnings, &UnusedConstructorWarning{
				Name: name, Imported: true, Location: usage.location,
			})
		case EntityPrivateTypeConstructor:
			*e.Warnings = append(*e.Warnings, &UnusedConstructorWarning{
				Name: name, Location: usage.location,
			})
		case EntityImportedValue:
			*e.Warnings = append(*e.Warnings, &UnusedImportedValueWarning{
				Name: name, Location: usage.location,
			})
		case EntityPrivateConstant:
			*e.Warnings = append(*e.Warnings, &UnusedPrivateModuleConstantWarning{
				Name: name, Location: usage.location,
			})
		case EntityPrivateFunction:
			*e.Warnings = append(*e.Warnings, &UnusedPrivateFunctionWarning{
				Name: name, Location: usage.location,
			})
		case EntityVariable:
			*e.Warnings = append(*e.Warnings, &UnusedVariableWarning{
				Name: name, Location: usage.location,
			})
		}
	}
}

// LocalValueNames lists the names in scope, for suggestions. The pipe
// variable is reserved and never surfaces in diagnostics.
func (e *Environment) LocalValueNames() []string {
	names := make([]string, 0, len(e.Scope))
	for name := range e.Scope {
		if name == ast.PipeVariable {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// moduleTypeNames lists the registered type names, for suggestions.
func (e *Environment) moduleTypeNames() []string {
	names := make([]string, 0, len(e.ModuleTypes))
	for name := range e.ModuleTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetValueConstructor resolves a possibly-qualified value name.
func (e *Environment) GetValueConstructor(module, name string, location ast.Span) (*ValueConstructor, error) {
	if module == "" {
		if value, ok := e.Scope[name]; ok {
			e.IncrementUsage(name)
			return value, nil
		}
		return nil, &UnknownVariableError{
			Name:      name,
			Variables: e.LocalValueNames(),
			Location:  location,
		}
	}

	imported, ok := e.ImportedModules[module]
	if !ok {
		return nil, &UnknownModuleError{
			Name:     module,
			Modules:  e.importedModuleNames(),
			Location: location,
		}
	}
	delete(e.UnusedModules, module)

	value, ok := imported.info.Values[name]
	if !ok {
		return nil, &UnknownModuleValueError{
			Name:       name,
			ModuleName: imported.info.Name,
			Values:     moduleValueNames(imported.info),
			Location:   location,
		}
	}
	return value, nil
}

// GetTypeConstructor resolves a possibly-qualified type name.
func (e *Environment) GetTypeConstructor(module, name string, location ast.Span) (*TypeConstructor, error) {
	if module == "" {
		if tc, ok := e.ModuleTypes[name]; ok {
			e.IncrementUsage(name)
			return tc, nil
		}
		return nil, &UnknownTypeError{
			Name:     name,
			Types:    e.moduleTypeNames(),
			Location: location,
		}
	}

	imported, ok := e.ImportedModules[module]
	if !ok {
		return nil, &UnknownModuleError{
			Name:     module,
			Modules:  e.importedModuleNames(),
			Location: location,
		}
	}
	delete(e.UnusedModules, module)

	tc, ok := imported.info.Types[name]
	if !ok {
		return nil, &UnknownModuleTypeError{
			Name:       name,
			ModuleName: imported.info.Name,
			Types:      moduleTypeNames(imported.info),
			Location:   location,
		}
	}
	return tc, nil
}

func (e *Environment) importedModuleNames() []string {
	names := make([]string, 0, len(e.ImportedModules))
	for name := range e.ImportedModules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func moduleValueNames(info *TypeInfo) []string {
	names := make([]string, 0, len(info.Values))
	for name := range info.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func moduleTypeNames(info *TypeInfo) []string {
	names := make([]string, 0, len(info.Types))
	for name := range info.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Instantiate replaces generic variables with fresh unbound ones, memoised
// per id for the traversal. Ids the hydrator marks rigid stay generic.
func (e *Environment) Instantiate(t Type, ids map[uint64]Type, hydrator *Hydrator) Type {
	switch t := Follow(t).(type) {
	case *App:
		args := make([]Type, len(t.Args))
		for i, arg := range t.Args {
			args[i] = e.Instantiate(arg, ids, hydrator)
		}
		return &App{Public: t.Public, Module: t.Module, Name: t.Name, Args: args}
	case *Fn:
		args := make([]Type, len(t.Args))
		for i, arg := range t.Args {
			args[i] = e.Instantiate(arg, ids, hydrator)
		}
		return &Fn{Args: args, Ret: e.Instantiate(t.Ret, ids, hydrator)}
	case *Tuple:
		elems := make([]Type, len(t.Elems))
		for i, elem := range t.Elems {
			elems[i] = e.Instantiate(elem, ids, hydrator)
		}
		return &Tuple{Elems: elems}
	case *Var:
		if generic, ok := t.Cell.State.(Generic); ok {
			if hydrator != nil && hydrator.IsRigid(generic.ID) {
				return t
			}
			if instance, ok := ids[generic.ID]; ok {
				return instance
			}
			fresh := e.NewUnboundVar()
			ids[generic.ID] = fresh
			return fresh
		}
		return t
	}
	return t
}

// GeneraliseType turns every cell still unbound into a generic with the
// same id. Rank-1: generalisation happens only after a module definition
// is fully typed.
func GeneraliseType(t Type) {
	switch t := Follow(t).(type) {
	case *App:
		for _, arg := range t.Args {
			GeneraliseType(arg)
		}
	case *Fn:
		for _, arg := range t.Args {
			GeneraliseType(arg)
		}
		GeneraliseType(t.Ret)
	case *Tuple:
		for _, elem := range t.Elems {
			GeneraliseType(elem)
		}
	case *Var:
		if unbound, ok := t.Cell.State.(Unbound); ok {
			t.Cell.State = Generic{ID: unbound.ID}
		}
	}
}
