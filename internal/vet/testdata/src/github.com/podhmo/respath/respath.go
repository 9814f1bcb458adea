package respath

type PathOption interface{ isPathOption() }

type BaseOption struct{ Dir string }

func (BaseOption) isPathOption() {}

func Base(dir string) PathOption { return BaseOption{Dir: dir} }

type DirOption struct{}

func (DirOption) isPathOption() {}

func Dir() PathOption { return DirOption{} }

func Path[T ~string](path T, options ...PathOption) T { return path }
