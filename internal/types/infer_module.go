package types

import (
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/nanoofficial/nano/internal/ast"
	"github.com/nanoofficial/nano/internal/idgen"
)

// InferModule types a whole module: imports, two-phase type and value
// registration, then every definition in order. Recoverable errors are
// accumulated so a single run reports as much as possible.
func InferModule(
	idGen *idgen.Generator,
	module *ast.Module,
	kind ast.ModuleKind,
	pkg string,
	modules map[string]*TypeInfo,
	warnings *[]Warning,
) (*TypedModule, error) {
	env := NewEnvironment(idGen, module.Name, modules, warnings)
	var accumulated *multierror.Error

	for _, def := range module.Definitions {
		if use, ok := def.(*ast.Use); ok {
			if err := env.registerImport(use); err != nil {
				accumulated = multierror.Append(accumulated, err)
			}
		}
	}

	if err := env.registerTypes(module.Definitions); err != nil {
		accumulated = multierror.Append(accumulated, err)
	}

	for _, def := range module.Definitions {
		if err := env.registerValues(def, kind); err != nil {
			accumulated = multierror.Append(accumulated, err)
		}
	}

	definitions := make([]TypedDefinition, 0, len(module.Definitions))
	for _, def := range module.Definitions {
		typed, err := inferDefinition(env, def, kind)
		if err != nil {
			accumulated = multierror.Append(accumulated, err)
			continue
		}
		if typed != nil {
			definitions = append(definitions, typed)
		}
	}

	for name, location := range env.UnusedModules {
		*warnings = append(*warnings, &UnusedImportedModuleWarning{Name: name, Location: location})
	}
	env.convertUnusedToWarnings(env.entityUsages[0])

	info := &TypeInfo{
		Name:              module.Name,
		Kind:              kind,
		Package:           pkg,
		Types:             publicTypes(env),
		TypesConstructors: env.ModuleTypesConstructors,
		Values:            publicValues(env),
		Accessors:         publicAccessors(env),
	}

	return &TypedModule{
		Name:        module.Name,
		Kind:        kind,
		Definitions: definitions,
		TypeInfo:    info,
	}, accumulated.ErrorOrNil()
}

func publicTypes(env *Environment) map[string]*TypeConstructor {
	out := map[string]*TypeConstructor{}
	for name, tc := range env.ModuleTypes {
		if tc.Public && tc.Module == env.CurrentModule {
			out[name] = tc
		}
	}
	return out
}

func publicValues(env *Environment) map[string]*ValueConstructor {
	out := map[string]*ValueConstructor{}
	for name, value := range env.ModuleValues {
		if value.Public {
			out[name] = value
		}
	}
	return out
}

func publicAccessors(env *Environment) map[string]*AccessorsMap {
	out := map[string]*AccessorsMap{}
	for name, accessors := range env.Accessors {
		if accessors.Public {
			out[name] = accessors
		}
	}
	return out
}

// registerImport resolves a use statement and installs the module plus any
// unqualified names.
func (e *Environment) registerImport(use *ast.Use) error {
	name := strings.Join(use.Module, "/")
	info, ok := e.ImportableModules[name]
	if !ok {
		modules := make([]string, 0, len(e.ImportableModules))
		for candidate := range e.ImportableModules {
			if candidate != "" {
				modules = append(modules, candidate)
			}
		}
		return &UnknownModuleError{Name: name, Modules: modules, Location: use.Location}
	}

	if info.Kind.IsValidator() {
		return &ValidatorImportedError{Name: name, Location: use.Location}
	}

	alias := use.As
	if alias == "" {
		alias = use.Module[len(use.Module)-1]
	}
	if previous, ok := e.ImportedModules[alias]; ok {
		return &DuplicateImportError{
			Name:             alias,
			Location:         use.Location,
			PreviousLocation: previous.location,
		}
	}
	e.ImportedModules[alias] = importedModule{location: use.Location, info: info}
	e.UnusedModules[alias] = use.Location

	for _, unqualified := range use.Unqualified {
		imported := unqualified.Label()
		if previous, ok := e.UnqualifiedImportedNames[imported]; ok {
			return &DuplicateImportError{
				Name:             imported,
				Location:         unqualified.Location,
				PreviousLocation: previous,
			}
		}
		e.UnqualifiedImportedNames[imported] = unqualified.Location

		found := false
		if value, ok := info.Values[unqualified.Name]; ok {
			e.Scope[imported] = value
			e.InitUsage(imported, EntityImportedValue, unqualified.Location)
			found = true
		}
		if tc, ok := info.Types[unqualified.Name]; ok {
			e.ModuleTypes[imported] = tc
			e.ImportedTypes[imported] = true
			if found {
				e.InitUsage(imported, EntityImportedTypeAndConstructor, unqualified.Location)
			} else {
				e.InitUsage(imported, EntityImportedType, unqualified.Location)
			}
			found = true
		}
		if !found {
			return &UnknownModuleValueError{
				Name:       unqualified.Name,
				ModuleName: name,
				Values:     moduleValueNames(info),
				Location:   unqualified.Location,
			}
		}
		delete(e.UnusedModules, alias)
	}
	return nil
}

// registerTypes registers every type head, retrying definitions whose
// dependencies have not landed yet. When a pass makes no progress and the
// unresolved name is itself among the remaining definitions, the group is
// cyclic.
func (e *Environment) registerTypes(definitions []ast.Definition) error {
	type pendingType struct {
		def ast.Definition
		err error
	}

	var remaining []pendingType
	for _, def := range definitions {
		switch def.(type) {
		case *ast.DataType, *ast.TypeAlias:
			remaining = append(remaining, pendingType{def: def})
		}
	}

	for len(remaining) > 0 {
		var next []pendingType
		for _, pending := range remaining {
			if err := e.registerType(pending.def); err != nil {
				if unknown, ok := err.(*UnknownTypeError); ok {
					next = append(next, pendingType{def: pending.def, err: unknown})
					continue
				}
				return err
			}
		}
		if len(next) == len(remaining) {
			// Stabilised failure: no definition made progress.
			unknown := next[0].err.(*UnknownTypeError)
			names := map[string]ast.Span{}
			for _, pending := range next {
				names[definedTypeName(pending.def)] = pending.def.DefinitionLocation()
			}
			if _, cyclic := names[unknown.Name]; cyclic {
				cycle := make([]string, 0, len(names))
				for name := range names {
					cycle = append(cycle, name)
				}
				return &CyclicTypeDefinitionsError{Types: cycle, Location: unknown.Location}
			}
			return unknown
		}
		remaining = next
	}
	return nil
}

func definedTypeName(def ast.Definition) string {
	switch def := def.(type) {
	case *ast.DataType:
		return def.Name
	case *ast.TypeAlias:
		return def.Alias
	}
	return ""
}

// registerType registers one DataType or TypeAlias head.
func (e *Environment) registerType(def ast.Definition) error {
	switch def := def.(type) {
	case *ast.DataType:
		hydrator := NewHydrator()
		parameters := make([]Type, len(def.Parameters))
		for i, parameter := range def.Parameters {
			tipo, err := hydrator.TypeFromAnnotation(
				&ast.AnnVar{Location: def.Location, Name: parameter}, e)
			if err != nil {
				return err
			}
			parameters[i] = tipo
		}
		tipo := &App{
			Public: def.Public,
			Module: e.CurrentModule,
			Name:   def.Name,
			Args:   parameters,
		}
		// Register the head before the constructors so self-referencing
		// types resolve; constructor argument annotations are checked in
		// the value phase.
		if err := e.InsertType(def.Name, &TypeConstructor{
			Location:   def.Location,
			Module:     e.CurrentModule,
			Public:     def.Public,
			Parameters: parameters,
			Tipo:       tipo,
		}, def.Location); err != nil {
			return err
		}
		for _, constructor := range def.Constructors {
			for _, argument := range constructor.Arguments {
				if _, err := hydrator.TypeFromAnnotation(argument.Annotation, e); err != nil {
					if _, unknown := err.(*UnknownTypeError); unknown {
						delete(e.ModuleTypes, def.Name)
						return err
					}
					return err
				}
			}
		}
		names := make([]string, len(def.Constructors))
		for i, constructor := range def.Constructors {
			names[i] = constructor.Name
		}
		e.InsertTypeToConstructors(def.Name, names)
		e.InitUsage(def.Name, typeEntityKind(def.Public), def.Location)
		return nil

	case *ast.TypeAlias:
		hydrator := NewHydrator()
		parameters := make([]Type, len(def.Parameters))
		for i, parameter := range def.Parameters {
			tipo, err := hydrator.TypeFromAnnotation(
				&ast.AnnVar{Location: def.Location, Name: parameter}, e)
			if err != nil {
				return err
			}
			parameters[i] = tipo
		}
		tipo, err := hydrator.TypeFromAnnotation(def.Annotation, e)
		if err != nil {
			return err
		}
		if err := e.InsertType(def.Alias, &TypeConstructor{
			Location:   def.Location,
			Module:     e.CurrentModule,
			Public:     def.Public,
			Parameters: parameters,
			Tipo:       tipo,
		}, def.Location); err != nil {
			return err
		}
		e.InitUsage(def.Alias, typeEntityKind(def.Public), def.Location)
		return nil
	}
	return nil
}

func typeEntityKind(public bool) EntityKind {
	if public {
		return EntityImportedType
	}
	return EntityPrivateType
}

// registerValues installs function signatures, data constructors, accessor
// maps, constants, and test stubs before bodies are typed.
func (e *Environment) registerValues(def ast.Definition, kind ast.ModuleKind) error {
	switch def := def.(type) {
	case *ast.Function:
		return e.registerFunction(def)

	case *ast.Test:
		return e.registerFunction(def.Function)

	case *ast.Validator:
		if !kind.IsValidator() {
			*e.Warnings = append(*e.Warnings, &ValidatorInLibraryWarning{Location: def.Location})
		}
		return nil

	case *ast.DataType:
		return e.registerDataTypeValues(def)

	case *ast.ModuleConstant:
		if previous, ok := e.ModuleValues[def.Name]; ok {
			return &DuplicateConstNameError{
				Name:             def.Name,
				Location:         def.Location,
				PreviousLocation: previous.DefinitionLocation(),
			}
		}
		tipo := constantType(def.Value)
		value := &ValueConstructor{
			Public: def.Public,
			Variant: VariantModuleConstant{
				Location: def.Location,
				Module:   e.CurrentModule,
				Literal:  def.Value,
			},
			Tipo: tipo,
		}
		e.InsertModuleValue(def.Name, value)
		e.Scope[def.Name] = value
		if !def.Public {
			e.InitUsage(def.Name, EntityPrivateConstant, def.Location)
		}
		return nil
	}
	return nil
}

func constantType(constant ast.Constant) Type {
	switch constant.(type) {
	case *ast.ConstInt:
		return IntType()
	case *ast.ConstString:
		return StringType()
	case *ast.ConstByteArray:
		return ByteArrayType()
	}
	return VoidType()
}

func (e *Environment) registerFunction(def *ast.Function) error {
	if previous, ok := e.ModuleValues[def.Name]; ok {
		return &DuplicateNameError{
			Name:             def.Name,
			Location:         def.Location,
			PreviousLocation: previous.DefinitionLocation(),
		}
	}

	hydrator := NewHydrator()
	argTypes := make([]Type, len(def.Arguments))
	fieldMap := NewFieldMap(len(def.Arguments), true)
	hasLabels := false
	for i, argument := range def.Arguments {
		tipo, err := hydrator.TypeFromOptionAnnotation(argument.Annotation, e)
		if err != nil {
			return err
		}
		argTypes[i] = tipo
		if argument.Name.Label != "" {
			hasLabels = true
			if err := fieldMap.Insert(argument.Name.Label, i, argument.Location); err != nil {
				return err
			}
		}
	}
	if !hasLabels {
		fieldMap = nil
	}

	ret, err := hydrator.TypeFromOptionAnnotation(def.ReturnAnnotation, e)
	if err != nil {
		return err
	}

	tipo := FunctionType(argTypes, ret)
	value := &ValueConstructor{
		Public: def.Public,
		Variant: VariantModuleFn{
			Name:     def.Name,
			Module:   e.CurrentModule,
			Arity:    len(def.Arguments),
			FieldMap: fieldMap,
			Location: def.Location,
		},
		Tipo: tipo,
	}
	e.InsertModuleValue(def.Name, value)
	e.Scope[def.Name] = value
	e.UngeneralisedFunctions[def.Name] = true
	if !def.Public {
		e.InitUsage(def.Name, EntityPrivateFunction, def.Location)
	}
	return nil
}

func (e *Environment) registerDataTypeValues(def *ast.DataType) error {
	tc, ok := e.ModuleTypes[def.Name]
	if !ok {
		// Registration of the head failed earlier; nothing to add.
		return nil
	}

	hydrator := NewHydrator()
	for i, parameter := range def.Parameters {
		if i < len(tc.Parameters) {
			hydrator.createdTypeVariables[parameter] = tc.Parameters[i]
		}
	}
	hydrator.DisallowNewTypeVariables()

	for _, constructor := range def.Constructors {
		if previous, ok := e.ModuleValues[constructor.Name]; ok {
			return &DuplicateNameError{
				Name:             constructor.Name,
				Location:         constructor.Location,
				PreviousLocation: previous.DefinitionLocation(),
			}
		}

		fieldMap := NewFieldMap(len(constructor.Arguments), false)
		hasLabels := false
		argTypes := make([]Type, len(constructor.Arguments))
		for i, argument := range constructor.Arguments {
			tipo, err := hydrator.TypeFromAnnotation(argument.Annotation, e)
			if err != nil {
				return err
			}
			argTypes[i] = tipo
			if argument.Label != "" {
				hasLabels = true
				if err := fieldMap.Insert(argument.Label, i, argument.Location); err != nil {
					return err
				}
			}
		}
		if !hasLabels {
			fieldMap = nil
		}

		var tipo Type = tc.Tipo
		if len(argTypes) > 0 {
			tipo = FunctionType(argTypes, tc.Tipo)
		}

		public := def.Public && !def.Opaque
		value := &ValueConstructor{
			Public: public,
			Variant: VariantRecord{
				Name:              constructor.Name,
				Module:            e.CurrentModule,
				Arity:             len(constructor.Arguments),
				FieldMap:          fieldMap,
				Location:          constructor.Location,
				ConstructorsCount: len(def.Constructors),
			},
			Tipo: tipo,
		}
		e.InsertModuleValue(constructor.Name, value)
		e.Scope[constructor.Name] = value
		if !public {
			e.InitUsage(constructor.Name, EntityPrivateTypeConstructor, constructor.Location)
		}

		// Single-constructor records with labels get field accessors.
		if len(def.Constructors) == 1 && hasLabels {
			accessors := map[string]RecordAccessor{}
			for i, argument := range constructor.Arguments {
				if argument.Label == "" {
					continue
				}
				accessors[argument.Label] = RecordAccessor{
					Label: argument.Label,
					Index: i,
					Tipo:  argTypes[i],
				}
			}
			e.InsertAccessors(def.Name, &AccessorsMap{
				Public:    public,
				Tipo:      tc.Tipo,
				Accessors: accessors,
			})
		}
	}
	return nil
}

// inferDefinition types one definition after registration.
func inferDefinition(env *Environment, def ast.Definition, kind ast.ModuleKind) (TypedDefinition, error) {
	switch def := def.(type) {
	case *ast.Use:
		return &TypedUse{Use: def}, nil

	case *ast.Function:
		fn, err := inferFunction(env, def)
		if err != nil {
			return nil, err
		}
		return fn, nil

	case *ast.Test:
		fn, err := inferFunction(env, def.Function)
		if err != nil {
			return nil, err
		}
		return &TypedTest{TypedFunction: fn}, nil

	case *ast.Validator:
		if !kind.IsValidator() {
			return nil, nil
		}
		return inferValidator(env, def)

	case *ast.DataType:
		tc := env.ModuleTypes[def.Name]
		if tc == nil {
			return nil, nil
		}
		return &TypedDataType{
			Constructors:    def.Constructors,
			Location:        def.Location,
			Name:            def.Name,
			Opaque:          def.Opaque,
			Parameters:      def.Parameters,
			TypedParameters: tc.Parameters,
			Public:          def.Public,
			Tipo:            tc.Tipo,
		}, nil

	case *ast.TypeAlias:
		tc := env.ModuleTypes[def.Alias]
		if tc == nil {
			return nil, nil
		}
		return &TypedTypeAlias{
			Alias:      def.Alias,
			Annotation: def.Annotation,
			Tipo:       tc.Tipo,
			Location:   def.Location,
			Parameters: def.Parameters,
			Public:     def.Public,
		}, nil

	case *ast.ModuleConstant:
		value := env.ModuleValues[def.Name]
		if value == nil {
			return nil, nil
		}
		return &TypedModuleConstant{
			Doc:      def.Doc,
			Location: def.Location,
			Public:   def.Public,
			Name:     def.Name,
			Value:    def.Value,
			Tipo:     value.Tipo,
		}, nil
	}
	return nil, nil
}

// inferFunction types a function body against its registered signature and
// generalises the result.
func inferFunction(env *Environment, def *ast.Function) (*TypedFunction, error) {
	registered := env.ModuleValues[def.Name]
	if registered == nil {
		return nil, &UnknownVariableError{Name: def.Name, Location: def.Location}
	}
	fn, ok := Follow(registered.Tipo).(*Fn)
	if !ok {
		return nil, &NotAFunctionError{Tipo: registered.Tipo, Location: def.Location}
	}

	hydrator := NewHydrator()
	typer := NewExprTyper(env, hydrator)

	reset := env.OpenNewScope()
	args := make([]*TypedArg, len(def.Arguments))
	for i, argument := range def.Arguments {
		args[i] = &TypedArg{Name: argument.Name, Location: argument.Location, Tipo: fn.Args[i]}
		if name := argument.Name.UsableName(); name != "" {
			env.InsertVariable(name, VariantLocalVariable{Location: argument.Location}, fn.Args[i])
			env.InitUsage(name, EntityVariable, argument.Location)
		}
	}

	body, err := typer.Infer(def.Body)
	if err != nil {
		env.CloseScope(reset)
		return nil, err
	}
	if err := typer.unifyWithSituation(fn.Ret, body.TypeOf(), def.Body.ExprLocation(), SituationReturnAnnotationMismatch); err != nil {
		env.CloseScope(reset)
		return nil, err
	}
	env.CloseScope(reset)

	// Any cell still unbound after typing the definition becomes generic.
	GeneraliseType(registered.Tipo)
	delete(env.UngeneralisedFunctions, def.Name)

	return &TypedFunction{
		Arguments:   args,
		Body:        body,
		Doc:         def.Doc,
		Location:    def.Location,
		Name:        def.Name,
		Public:      def.Public,
		ReturnType:  fn.Ret,
		EndPosition: def.EndPosition,
	}, nil
}

// inferValidator types the handler with its surrounding parameters in
// scope and checks that it produces Bool.
func inferValidator(env *Environment, def *ast.Validator) (*TypedValidator, error) {
	hydrator := NewHydrator()
	typer := NewExprTyper(env, hydrator)

	reset := env.OpenNewScope()
	defer env.CloseScope(reset)

	params := make([]*TypedArg, len(def.Params))
	for i, param := range def.Params {
		tipo, err := hydrator.TypeFromOptionAnnotation(param.Annotation, env)
		if err != nil {
			return nil, err
		}
		params[i] = &TypedArg{Name: param.Name, Location: param.Location, Tipo: tipo}
		if name := param.Name.UsableName(); name != "" {
			env.InsertVariable(name, VariantLocalVariable{Location: param.Location}, tipo)
			env.InitUsage(name, EntityVariable, param.Location)
		}
	}

	fnExpr := &ast.Fn{
		Location:         def.Fun.Location,
		Arguments:        def.Fun.Arguments,
		Body:             def.Fun.Body,
		ReturnAnnotation: def.Fun.ReturnAnnotation,
	}
	typed, err := typer.inferFn(fnExpr)
	if err != nil {
		return nil, err
	}
	ret := ReturnType(typed.Tipo)
	if err := typer.unifyWithSituation(BoolType(), ret, def.Fun.Location, SituationReturnAnnotationMismatch); err != nil {
		return nil, err
	}

	return &TypedValidator{
		Fun: &TypedFunction{
			Arguments:  typed.Args,
			Body:       typed.Body,
			Doc:        def.Fun.Doc,
			Location:   def.Fun.Location,
			Name:       def.Fun.Name,
			Public:     def.Fun.Public,
			ReturnType: ret,
		},
		Params:   params,
		Location: def.Location,
	}, nil
}
