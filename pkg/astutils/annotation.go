package astutils

type (
	Annotation    string
	AnnotationKey string
)

func (a Annotation) String() string { return string(a) }

const (
	// CommentProxy on an interface generates a proxy type for it.
	CommentProxy = Annotation("@Proxy")
	// CommentPointcut on an interface method lists annotations to attach,
	// e.g. @Pointcut(Log, Retry).
	CommentPointcut = Annotation("@Pointcut")

	// CommentKeyDefault key for comment params without "="
	CommentKeyDefault = AnnotationKey("default")
	// CommentKeySuffix names the generated type <Interface><suffix>.
	CommentKeySuffix = AnnotationKey("suffix")
	// CommentKeyName names the generated type.
	CommentKeyName = AnnotationKey("name")
)

var (
	allAnnotationKey = map[AnnotationKey]struct{}{
		CommentKeyDefault: {},
		CommentKeySuffix:  {},
		CommentKeyName:    {},
	}
	systemAnnotation = map[Annotation]struct{}{
		CommentProxy:    {},
		CommentPointcut: {},
	}
)

func IsSystemAnnotation(anno Annotation) bool {
	_, ok := systemAnnotation[anno]
	return ok
}

func IsSystemAnnotationKey(key AnnotationKey) bool {
	_, ok := allAnnotationKey[key]
	return ok
}
