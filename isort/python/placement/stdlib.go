package placement

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// stdlibModules lists the top level modules of the Python 3 standard library.
// A non-empty value restricts the module to the python versions matching it.
var stdlibModules = map[string]string{
	"__future__":      "",
	"_ast":            "",
	"_dummy_thread":   "< 3.9",
	"_thread":         "",
	"abc":             "",
	"aifc":            "< 3.13",
	"argparse":        "",
	"array":           "",
	"ast":             "",
	"asynchat":        "< 3.12",
	"asyncio":         "",
	"asyncore":        "< 3.12",
	"atexit":          "",
	"audioop":         "< 3.13",
	"base64":          "",
	"bdb":             "",
	"binascii":        "",
	"binhex":          "< 3.11",
	"bisect":          "",
	"builtins":        "",
	"bz2":             "",
	"cProfile":        "",
	"calendar":        "",
	"cgi":             "< 3.13",
	"cgitb":           "< 3.13",
	"chunk":           "< 3.13",
	"cmath":           "",
	"cmd":             "",
	"code":            "",
	"codecs":          "",
	"codeop":          "",
	"collections":     "",
	"colorsys":        "",
	"compileall":      "",
	"concurrent":      "",
	"configparser":    "",
	"contextlib":      "",
	"contextvars":     ">= 3.7",
	"copy":            "",
	"copyreg":         "",
	"crypt":           "< 3.13",
	"csv":             "",
	"ctypes":          "",
	"curses":          "",
	"dataclasses":     ">= 3.7",
	"datetime":        "",
	"dbm":             "",
	"decimal":         "",
	"difflib":         "",
	"dis":             "",
	"distutils":       "< 3.12",
	"doctest":         "",
	"dummy_threading": "< 3.9",
	"email":           "",
	"encodings":       "",
	"ensurepip":       "",
	"enum":            "",
	"errno":           "",
	"faulthandler":    "",
	"fcntl":           "",
	"filecmp":         "",
	"fileinput":       "",
	"fnmatch":         "",
	"formatter":       "< 3.10",
	"fpectl":          "< 3.7",
	"fractions":       "",
	"ftplib":          "",
	"functools":       "",
	"gc":              "",
	"getopt":          "",
	"getpass":         "",
	"gettext":         "",
	"glob":            "",
	"graphlib":        ">= 3.9",
	"grp":             "",
	"gzip":            "",
	"hashlib":         "",
	"heapq":           "",
	"hmac":            "",
	"html":            "",
	"http":            "",
	"imaplib":         "",
	"imghdr":          "< 3.13",
	"imp":             "< 3.12",
	"importlib":       "",
	"inspect":         "",
	"io":              "",
	"ipaddress":       "",
	"itertools":       "",
	"json":            "",
	"keyword":         "",
	"lib2to3":         "< 3.13",
	"linecache":       "",
	"locale":          "",
	"logging":         "",
	"lzma":            "",
	"macpath":         "< 3.8",
	"mailbox":         "",
	"mailcap":         "< 3.13",
	"marshal":         "",
	"math":            "",
	"mimetypes":       "",
	"mmap":            "",
	"modulefinder":    "",
	"msilib":          "< 3.13",
	"msvcrt":          "",
	"multiprocessing": "",
	"netrc":           "",
	"nis":             "< 3.13",
	"nntplib":         "< 3.13",
	"ntpath":          "",
	"numbers":         "",
	"operator":        "",
	"optparse":        "",
	"os":              "",
	"ossaudiodev":     "< 3.13",
	"parser":          "< 3.10",
	"pathlib":         "",
	"pdb":             "",
	"pickle":          "",
	"pickletools":     "",
	"pipes":           "< 3.13",
	"pkgutil":         "",
	"platform":        "",
	"plistlib":        "",
	"poplib":          "",
	"posix":           "",
	"posixpath":       "",
	"pprint":          "",
	"profile":         "",
	"pstats":          "",
	"pty":             "",
	"pwd":             "",
	"py_compile":      "",
	"pyclbr":          "",
	"pydoc":           "",
	"queue":           "",
	"quopri":          "",
	"random":          "",
	"re":              "",
	"readline":        "",
	"reprlib":         "",
	"resource":        "",
	"rlcompleter":     "",
	"runpy":           "",
	"sched":           "",
	"secrets":         ">= 3.6",
	"select":          "",
	"selectors":       "",
	"shelve":          "",
	"shlex":           "",
	"shutil":          "",
	"signal":          "",
	"site":            "",
	"smtpd":           "< 3.12",
	"smtplib":         "",
	"sndhdr":          "< 3.13",
	"socket":          "",
	"socketserver":    "",
	"spwd":            "< 3.13",
	"sqlite3":         "",
	"sre":             "",
	"sre_compile":     "",
	"sre_constants":   "",
	"sre_parse":       "",
	"ssl":             "",
	"stat":            "",
	"statistics":      "",
	"string":          "",
	"stringprep":      "",
	"struct":          "",
	"subprocess":      "",
	"sunau":           "< 3.13",
	"symbol":          "< 3.10",
	"symtable":        "",
	"sys":             "",
	"sysconfig":       "",
	"syslog":          "",
	"tabnanny":        "",
	"tarfile":         "",
	"telnetlib":       "< 3.13",
	"tempfile":        "",
	"termios":         "",
	"test":            "",
	"textwrap":        "",
	"threading":       "",
	"time":            "",
	"timeit":          "",
	"tkinter":         "",
	"token":           "",
	"tokenize":        "",
	"tomllib":         ">= 3.11",
	"trace":           "",
	"traceback":       "",
	"tracemalloc":     "",
	"tty":             "",
	"turtle":          "",
	"turtledemo":      "",
	"types":           "",
	"typing":          "",
	"unicodedata":     "",
	"unittest":        "",
	"urllib":          "",
	"uu":              "< 3.13",
	"uuid":            "",
	"venv":            "",
	"warnings":        "",
	"wave":            "",
	"weakref":         "",
	"webbrowser":      "",
	"winreg":          "",
	"winsound":        "",
	"wsgiref":         "",
	"xdrlib":          "< 3.13",
	"xml":             "",
	"xmlrpc":          "",
	"zipapp":          "",
	"zipfile":         "",
	"zipimport":       "",
	"zlib":            "",
	"zoneinfo":        ">= 3.9",
}

var stdlibConstraints = mustCompileConstraints(stdlibModules)

func mustCompileConstraints(modules map[string]string) map[string]*semver.Constraints {
	out := make(map[string]*semver.Constraints, len(modules))
	for module, constraint := range modules {
		if constraint == "" {
			out[module] = nil
			continue
		}
		c, err := semver.NewConstraint(constraint)
		if err != nil {
			panic(fmt.Sprintf("invalid constraint %q for %s: %v", constraint, module, err))
		}
		out[module] = c
	}
	return out
}

// IsStdlib reports whether module names a standard library module of the
// given python version. A nil version matches any Python 3 release.
func IsStdlib(module string, version *semver.Version) bool {
	c, ok := stdlibConstraints[module]
	if !ok {
		return false
	}
	return c == nil || version == nil || c.Check(version)
}
