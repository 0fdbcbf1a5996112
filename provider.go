package ioc

import (
	"reflect"
)

var (
	errorType    = reflect.TypeOf((*error)(nil)).Elem()
	resolverType = reflect.TypeOf((*Resolver)(nil)).Elem()
)

// Provide registers a constructor function under the type of its first
// result. Each parameter is resolved from the container by its type when the
// service is resolved; a parameter of type Resolver receives the resolver of
// the current resolution. The constructor may return T or (T, error).
//
// Example:
//
//	func NewUserService(repo UserRepository, logger *slog.Logger) *UserService {
//	    return &UserService{repo: repo, logger: logger}
//	}
//
//	err := ioc.Provide(c, NewUserService, ioc.AsSingleton())
func Provide(r Registrar, constructor any, opts ...RegisterOption) error {
	return provide(r, "", constructor, opts)
}

// ProvideNamed registers a constructor under a named variant of the type of
// its first result.
func ProvideNamed(r Registrar, name string, constructor any, opts ...RegisterOption) error {
	return provide(r, name, constructor, opts)
}

func provide(r Registrar, name string, constructor any, opts []RegisterOption) error {
	if r == nil {
		return ErrRegistrarNil
	}

	fn, fnType, err := analyzeConstructor(constructor)
	if err != nil {
		return RegistrationError{Key: Key{Type: reflect.TypeOf(constructor), Name: name}, Operation: "provide", Cause: err}
	}

	key := Key{Type: fnType.Out(0), Name: name}

	deps := make([]Key, 0, fnType.NumIn())
	for i := range fnType.NumIn() {
		if p := fnType.In(i); p != resolverType {
			deps = append(deps, Key{Type: p})
		}
	}

	options := make([]RegisterOption, 0, len(opts)+2)
	options = append(options, implTypeOption{t: key.Type}, dependenciesOption(deps))
	options = append(options, opts...)

	return r.Register(key, func(res Resolver) (any, error) {
		return invokeConstructor(res, fn, fnType)
	}, options...)
}

// analyzeConstructor validates the shape of a constructor function.
func analyzeConstructor(constructor any) (reflect.Value, reflect.Type, error) {
	if constructor == nil {
		return reflect.Value{}, nil, ErrConstructorNil
	}

	fn := reflect.ValueOf(constructor)
	fnType := fn.Type()

	if fnType.Kind() != reflect.Func {
		return reflect.Value{}, nil, ErrConstructorNotFunction
	}

	if fn.IsNil() {
		return reflect.Value{}, nil, ErrConstructorNil
	}

	if fnType.IsVariadic() {
		return reflect.Value{}, nil, ErrConstructorVariadic
	}

	switch fnType.NumOut() {
	case 0:
		return reflect.Value{}, nil, ErrConstructorNoReturn
	case 1:
		if fnType.Out(0) == errorType {
			return reflect.Value{}, nil, ErrConstructorNoReturn
		}
	case 2:
		if fnType.Out(1) != errorType {
			return reflect.Value{}, nil, ErrConstructorInvalidSecondReturn
		}
	default:
		return reflect.Value{}, nil, ErrConstructorTooManyReturns
	}

	return fn, fnType, nil
}

// invokeConstructor resolves the parameters of fn and calls it.
func invokeConstructor(res Resolver, fn reflect.Value, fnType reflect.Type) (any, error) {
	args := make([]reflect.Value, fnType.NumIn())
	for i := range args {
		paramType := fnType.In(i)

		if paramType == resolverType {
			args[i] = reflect.ValueOf(&res).Elem()
			continue
		}

		key := Key{Type: paramType}
		dep, err := res.Resolve(key)
		if err != nil {
			return nil, err
		}

		depValue := reflect.ValueOf(dep)
		if !depValue.Type().AssignableTo(paramType) {
			return nil, TypeMismatchError{Key: key, Expected: paramType, Actual: depValue.Type()}
		}
		args[i] = depValue
	}

	results := fn.Call(args)

	if len(results) == 2 && !results[1].IsNil() {
		return nil, results[1].Interface().(error)
	}

	return results[0].Interface(), nil
}
