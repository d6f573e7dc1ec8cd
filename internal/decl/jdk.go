package decl

// jdkType describes a platform type the host adapters may reference
// without parsing its sources.
type jdkType struct {
	kind      Kind
	mods      Modifiers
	retention Retention
}

var jdkTypes = map[string]jdkType{
	"java.lang.Object":                        {KindClass, ModPublic, 0},
	"java.lang.String":                        {KindClass, ModPublic | ModFinal, 0},
	"java.lang.Class":                         {KindClass, ModPublic | ModFinal, 0},
	"java.lang.Enum":                          {KindClass, ModPublic | ModAbstract, 0},
	"java.lang.Record":                        {KindClass, ModPublic | ModAbstract, 0},
	"java.lang.Number":                        {KindClass, ModPublic | ModAbstract, 0},
	"java.lang.Boolean":                       {KindClass, ModPublic | ModFinal, 0},
	"java.lang.Byte":                          {KindClass, ModPublic | ModFinal, 0},
	"java.lang.Character":                     {KindClass, ModPublic | ModFinal, 0},
	"java.lang.Short":                         {KindClass, ModPublic | ModFinal, 0},
	"java.lang.Integer":                       {KindClass, ModPublic | ModFinal, 0},
	"java.lang.Long":                          {KindClass, ModPublic | ModFinal, 0},
	"java.lang.Float":                         {KindClass, ModPublic | ModFinal, 0},
	"java.lang.Double":                        {KindClass, ModPublic | ModFinal, 0},
	"java.lang.Void":                          {KindClass, ModPublic | ModFinal, 0},
	"java.lang.Throwable":                     {KindClass, ModPublic, 0},
	"java.lang.Exception":                     {KindClass, ModPublic, 0},
	"java.lang.RuntimeException":              {KindClass, ModPublic, 0},
	"java.lang.Error":                         {KindClass, ModPublic, 0},
	"java.lang.IllegalArgumentException":      {KindClass, ModPublic, 0},
	"java.lang.IllegalStateException":         {KindClass, ModPublic, 0},
	"java.lang.UnsupportedOperationException": {KindClass, ModPublic, 0},
	"java.lang.CharSequence":                  {KindInterface, ModPublic | ModAbstract, 0},
	"java.lang.Comparable":                    {KindInterface, ModPublic | ModAbstract, 0},
	"java.lang.Iterable":                      {KindInterface, ModPublic | ModAbstract, 0},
	"java.lang.Runnable":                      {KindInterface, ModPublic | ModAbstract, 0},
	"java.lang.AutoCloseable":                 {KindInterface, ModPublic | ModAbstract, 0},
	"java.lang.Cloneable":                     {KindInterface, ModPublic | ModAbstract, 0},
	"java.lang.Override":                      {KindAnnotation, ModPublic | ModAbstract, RetentionSource},
	"java.lang.SuppressWarnings":              {KindAnnotation, ModPublic | ModAbstract, RetentionSource},
	"java.lang.Deprecated":                    {KindAnnotation, ModPublic | ModAbstract, RetentionRuntime},
	"java.lang.FunctionalInterface":           {KindAnnotation, ModPublic | ModAbstract, RetentionRuntime},
	"java.lang.SafeVarargs":                   {KindAnnotation, ModPublic | ModAbstract, RetentionRuntime},
	"java.lang.annotation.Retention":          {KindAnnotation, ModPublic | ModAbstract, RetentionRuntime},
	"java.lang.annotation.Target":             {KindAnnotation, ModPublic | ModAbstract, RetentionRuntime},
	"java.lang.annotation.Documented":         {KindAnnotation, ModPublic | ModAbstract, RetentionRuntime},
	"java.lang.annotation.Inherited":          {KindAnnotation, ModPublic | ModAbstract, RetentionRuntime},
	"java.lang.annotation.Repeatable":         {KindAnnotation, ModPublic | ModAbstract, RetentionRuntime},
	"java.lang.annotation.RetentionPolicy":    {KindEnum, ModPublic | ModFinal, 0},
	"java.lang.annotation.ElementType":        {KindEnum, ModPublic | ModFinal, 0},
	"java.lang.annotation.Annotation":         {KindInterface, ModPublic | ModAbstract, 0},
}

// IsJDKType reports whether qualifiedName is one of the platform types
// JDKType can declare.
func IsJDKType(qualifiedName string) bool {
	_, ok := jdkTypes[qualifiedName]
	return ok
}

// JDKType returns the platform type qualifiedName, declaring it as an
// external type on first use with its real kind, modifiers and retention.
func (b *Builder) JDKType(qualifiedName string) (Handle, bool) {
	if h, ok := b.g.byName[qualifiedName]; ok {
		return h, true
	}
	t, ok := jdkTypes[qualifiedName]
	if !ok {
		return None, false
	}
	pkg, name := SplitQualified(qualifiedName)
	h := b.External(pkg, t.kind, t.mods, name)
	b.g.decls[h].Retention = t.retention
	return h, true
}

// JavaLang returns java.lang.<simple> when it is a known platform type.
func (b *Builder) JavaLang(simple string) (Handle, bool) {
	return b.JDKType("java.lang." + simple)
}
