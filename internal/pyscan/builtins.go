package pyscan

// pythonBuiltins holds the builtin names the undefined-name check must not
// flag. Not exhaustive, but covers what shows up in notebook code.
var pythonBuiltins = map[string]struct{}{}

func init() {
	for _, name := range []string{
		"abs", "all", "any", "ascii", "bin", "bool", "bytearray", "bytes",
		"callable", "chr", "classmethod", "compile", "complex", "delattr",
		"dict", "dir", "divmod", "enumerate", "eval", "exec", "filter",
		"float", "format", "frozenset", "getattr", "globals", "hasattr",
		"hash", "help", "hex", "id", "input", "int", "isinstance",
		"issubclass", "iter", "len", "list", "locals", "map", "max",
		"memoryview", "min", "next", "object", "oct", "open", "ord", "pow",
		"print", "property", "range", "repr", "reversed", "round", "set",
		"setattr", "slice", "sorted", "staticmethod", "str", "sum", "super",
		"tuple", "type", "vars", "zip",
		"True", "False", "None", "NotImplemented", "Ellipsis",
		"Exception", "BaseException", "ArithmeticError", "AssertionError",
		"AttributeError", "FileNotFoundError", "ImportError", "IndexError",
		"KeyError", "KeyboardInterrupt", "LookupError", "NameError",
		"NotImplementedError", "OSError", "OverflowError", "RuntimeError",
		"StopIteration", "SyntaxError", "SystemExit", "TypeError",
		"ValueError", "ZeroDivisionError", "Warning", "DeprecationWarning",
		"UserWarning",
		"__name__", "__file__", "__doc__", "__builtins__", "__import__",
		"self", "cls",
	} {
		pythonBuiltins[name] = struct{}{}
	}
}
