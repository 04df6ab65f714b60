package pyproc

// runnerSource is the Python program driving one interpreter session. It
// reads newline-delimited JSON requests from stdin, exec()s each code unit
// against a persistent namespace, and writes one JSON response per line.
// It exits when stdin closes.
const runnerSource = `
import contextlib
import io
import json
import sys

_SKIP_TYPES = ('module', 'function', 'type', 'builtin_function_or_method')
_REPR_LIMIT = 200


def _snapshot(ns):
    out = {}
    for name, value in ns.items():
        if name.startswith('__'):
            continue
        if type(value).__name__ in _SKIP_TYPES:
            continue
        try:
            r = repr(value)
        except Exception:
            r = '<unrepresentable>'
        if len(r) > _REPR_LIMIT:
            r = r[:_REPR_LIMIT] + '...'
        out[name] = r
    return out


def main():
    namespace = {}
    for line in sys.stdin:
        line = line.strip()
        if not line:
            continue
        req = json.loads(line)

        stdout = io.StringIO()
        stderr = io.StringIO()
        success = True
        error = ''
        try:
            with contextlib.redirect_stdout(stdout), contextlib.redirect_stderr(stderr):
                exec(req['code'], namespace, namespace)
        except BaseException as exc:
            success = False
            error = '%s: %s' % (type(exc).__name__, exc)

        out = stdout.getvalue()
        err = stderr.getvalue()
        if out and err:
            output = 'STDOUT:\n%s\nSTDERR:\n%s' % (out, err)
        else:
            output = out or err

        resp = {
            'id': req['id'],
            'output': output,
            'success': success,
            'error': error,
            'bindings': _snapshot(namespace),
        }
        sys.stdout.write(json.dumps(resp) + '\n')
        sys.stdout.flush()


main()
`
