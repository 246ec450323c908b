package formula

// FunctionNames maps the function index stored in a FUNCTION_NODE to the
// function's display name.
type FunctionNames interface {
	NameFor(index uint32) (string, bool)
}

// FunctionMap is a FunctionNames backed by a map. It is the form read from
// configuration.
type FunctionMap map[uint32]string

// NameFor implements FunctionNames.
func (m FunctionMap) NameFor(index uint32) (string, bool) {
	name, ok := m[index]
	return name, ok
}

// Chain returns names that consult each map in turn.
func Chain(names ...FunctionNames) FunctionNames {
	return chain(names)
}

type chain []FunctionNames

func (c chain) NameFor(index uint32) (string, bool) {
	for _, n := range c {
		if n == nil {
			continue
		}
		if name, ok := n.NameFor(index); ok {
			return name, true
		}
	}
	return "", false
}

// DefaultFunctions holds the function indexes of the original function
// set. Later additions are numbered past this table and have to be
// supplied by the caller.
var DefaultFunctions = FunctionMap{
	1: "ABS", 2: "ACCRINT", 3: "ACCRINTM", 4: "ACOS", 5: "ACOSH",
	6: "ADDRESS", 7: "AND", 8: "AREAS", 9: "ASIN", 10: "ASINH",
	11: "ATAN", 12: "ATAN2", 13: "ATANH", 14: "AVEDEV", 15: "AVERAGE",
	16: "AVERAGEA", 17: "CEILING", 18: "CHAR", 19: "CHOOSE", 20: "CLEAN",
	21: "CODE", 22: "COLUMN", 23: "COLUMNS", 24: "COMBIN", 25: "CONCATENATE",
	26: "CONFIDENCE", 27: "CORREL", 28: "COS", 29: "COSH", 30: "COUNT",
	31: "COUNTA", 32: "COUNTBLANK", 33: "COUNTIF", 34: "COUPDAYBS", 35: "COUPDAYS",
	36: "COUPDAYSNC", 37: "COUPNUM", 38: "COVAR", 39: "DATE", 40: "DATEDIF",
	41: "DAY", 42: "DB", 43: "DDB", 44: "DEGREES", 45: "DISC",
	46: "DOLLAR", 47: "EDATE", 48: "EVEN", 49: "EXACT", 50: "EXP",
	51: "FACT", 52: "FALSE", 53: "FIND", 54: "FIXED", 55: "FLOOR",
	56: "FORECAST", 57: "FREQUENCY", 58: "GCD", 59: "HLOOKUP", 60: "HOUR",
	61: "HYPERLINK", 62: "IF", 63: "INDEX", 64: "INDIRECT", 65: "INT",
	66: "INTERCEPT", 67: "IPMT", 68: "IRR", 69: "ISBLANK", 70: "ISERROR",
	71: "ISEVEN", 72: "ISODD", 73: "ISPMT", 74: "LARGE", 75: "LCM",
	76: "LEFT", 77: "LEN", 78: "LN", 79: "LOG", 80: "LOG10",
	81: "LOOKUP", 82: "LOWER", 83: "MATCH", 84: "MAX", 85: "MAXA",
	86: "MEDIAN", 87: "MID", 88: "MIN", 89: "MINA", 90: "MINUTE",
	91: "MIRR", 92: "MOD", 93: "MODE", 94: "MONTH", 95: "MROUND",
	96: "NOT", 97: "NOW", 98: "NPER", 99: "NPV", 100: "ODD",
	101: "OFFSET", 102: "OR", 103: "PERCENTILE", 104: "PI", 105: "PMT",
	106: "POISSON", 107: "POWER", 108: "PPMT", 109: "PRICE", 110: "PRICEDISC",
	111: "PRICEMAT", 112: "PROB", 113: "PRODUCT", 114: "PROPER", 115: "PV",
	116: "QUOTIENT", 117: "RADIANS", 118: "RAND", 119: "RANDBETWEEN", 120: "RANK",
	121: "RATE", 122: "REPLACE", 123: "REPT", 124: "RIGHT", 125: "ROMAN",
	126: "ROUND", 127: "ROUNDDOWN", 128: "ROUNDUP", 129: "ROW", 130: "ROWS",
	131: "SEARCH", 132: "SECOND", 133: "SIGN", 134: "SIN", 135: "SINH",
	136: "SLN", 137: "SLOPE", 138: "SMALL", 139: "SQRT", 140: "STDEV",
	141: "STDEVA", 142: "STDEVP", 143: "STDEVPA", 144: "SUBSTITUTE", 145: "SUMIF",
	146: "SUMPRODUCT", 147: "SUMSQ", 148: "SYD", 149: "T", 150: "TAN",
	151: "TANH", 152: "TIME", 153: "TIMEVALUE", 154: "TODAY", 155: "TRIM",
	156: "TRUE", 157: "TRUNC", 158: "UPPER", 159: "VALUE", 160: "VAR",
	161: "VARA", 162: "VARP", 163: "VARPA", 164: "VDB", 165: "VLOOKUP",
	166: "WEEKDAY", 167: "YEAR", 168: "SUM",
}
