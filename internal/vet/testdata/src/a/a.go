package a

import rp "github.com/podhmo/respath"

type Config struct {
	Icon string `respath:"base=assets"`
}

var found = Config{Icon: "icon.png"}

var missing = Config{Icon: "nope.png"} // want `missing resource file "assets/nope.png"`

//respath:path
const Page = "pages/index.html"

//respath:path
const Gone = "pages/gone.html" // want `missing resource file "pages/gone.html"`

func load() string {
	return rp.Path("pages/" + "index.html")
}

func loadDir() string {
	return rp.Path("pages", rp.Dir())
}

func notDir() string {
	return rp.Path("pages/index.html", rp.Dir()) // want `missing resource directory "pages/index.html"`
}

type Bad struct {
	Logo string `respath:"base=nowhere"` // want `invalid base directory "nowhere"`
}

var bad = Bad{Logo: "x.png"}
