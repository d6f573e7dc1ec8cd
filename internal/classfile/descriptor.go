package classfile

import (
	"fmt"
	"strings"
)

// ObjectDescriptor returns the field descriptor of an internal class name.
func ObjectDescriptor(internalName string) string {
	return "L" + internalName + ";"
}

// MethodDescriptor assembles a method descriptor.
func MethodDescriptor(ret string, params ...string) string {
	return "(" + strings.Join(params, "") + ")" + ret
}

// ParseMethodDescriptor splits a method descriptor into parameter and return
// field descriptors.
func ParseMethodDescriptor(desc string) (params []string, ret string, err error) {
	if !strings.HasPrefix(desc, "(") {
		return nil, "", fmt.Errorf("method descriptor %q does not start with '('", desc)
	}
	i := 1
	for i < len(desc) && desc[i] != ')' {
		n, err := fieldDescriptorLen(desc[i:])
		if err != nil {
			return nil, "", fmt.Errorf("method descriptor %q: %w", desc, err)
		}
		params = append(params, desc[i:i+n])
		i += n
	}
	if i >= len(desc) {
		return nil, "", fmt.Errorf("method descriptor %q has no ')'", desc)
	}
	ret = desc[i+1:]
	if ret == "V" {
		return params, ret, nil
	}
	n, err := fieldDescriptorLen(ret)
	if err != nil || n != len(ret) {
		return nil, "", fmt.Errorf("method descriptor %q has invalid return type", desc)
	}
	return params, ret, nil
}

// fieldDescriptorLen returns the length of the field descriptor at the start of s.
func fieldDescriptorLen(s string) (int, error) {
	i := 0
	for i < len(s) && s[i] == '[' {
		i++
	}
	if i >= len(s) {
		return 0, fmt.Errorf("truncated field descriptor")
	}
	switch s[i] {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		return i + 1, nil
	case 'L':
		end := strings.IndexByte(s[i:], ';')
		if end < 2 {
			return 0, fmt.Errorf("unterminated class descriptor")
		}
		return i + end + 1, nil
	}
	return 0, fmt.Errorf("invalid descriptor character %q", s[i])
}

// ArgumentSlots counts the local variable slots taken by the parameters of
// a method descriptor; long and double take two.
func ArgumentSlots(desc string) (int, error) {
	params, _, err := ParseMethodDescriptor(desc)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, p := range params {
		if p == "J" || p == "D" {
			n += 2
		} else {
			n++
		}
	}
	return n, nil
}

var primitiveDescriptorNames = map[byte]string{
	'B': "byte", 'C': "char", 'D': "double", 'F': "float",
	'I': "int", 'J': "long", 'S': "short", 'Z': "boolean", 'V': "void",
}

// JavaTypeName renders a field or return descriptor in source form
// (java.lang.String[]), with nested classes keeping their '$'.
func JavaTypeName(desc string) string {
	dims := 0
	for dims < len(desc) && desc[dims] == '[' {
		dims++
	}
	base := desc[dims:]
	var name string
	if len(base) == 1 {
		name = primitiveDescriptorNames[base[0]]
	} else if strings.HasPrefix(base, "L") && strings.HasSuffix(base, ";") {
		name = strings.ReplaceAll(base[1:len(base)-1], "/", ".")
	} else {
		name = base
	}
	return name + strings.Repeat("[]", dims)
}
