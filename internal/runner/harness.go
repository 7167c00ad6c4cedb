package runner

// harnessSource is the driver that runs inside the sandbox subprocess.
// It loads the submitted module, discovers the entry point, binds the
// input value to its parameters, invokes it under measurement, and
// writes a single JSON verdict to the result file. The result file is
// used instead of stdout because stdout belongs to the submitted code.
//
// The memory ceiling is applied with RLIMIT_AS where the platform has
// it; elsewhere the verdict reports memory_limited=false and the Go
// side logs the gap.
const harnessSource = `import importlib.util
import inspect
import json
import sys
import time
import tracemalloc


def write(path, verdict):
    with open(path, "w", encoding="utf-8") as f:
        json.dump(verdict, f, default=str)


def fail(path, status, detail=""):
    write(path, {
        "status": status,
        "error": detail,
        "result": None,
        "execution_time": None,
        "peak_memory": None,
        "memory_limited": MEMORY_LIMITED,
    })
    sys.exit(0)


MEMORY_LIMITED = False


def main():
    solution_path, result_path = sys.argv[1], sys.argv[2]
    payload = json.load(sys.stdin)

    global MEMORY_LIMITED
    limit_bytes = payload.get("memory_limit_bytes") or 0
    if limit_bytes > 0:
        try:
            import resource
            resource.setrlimit(resource.RLIMIT_AS, (limit_bytes, limit_bytes))
            MEMORY_LIMITED = True
        except (ImportError, ValueError, OSError):
            MEMORY_LIMITED = False

    spec = importlib.util.spec_from_file_location("solution", solution_path)
    module = importlib.util.module_from_spec(spec)
    try:
        spec.loader.exec_module(module)
    except MemoryError:
        fail(result_path, "memory_limit_exceeded")
    except BaseException as e:
        fail(result_path, "runtime_error", "%s: %s" % (type(e).__name__, e))

    func = None
    for name, obj in module.__dict__.items():
        if callable(obj) and not name.startswith("__"):
            func = obj
            break
    if func is None:
        fail(result_path, "no_entry_point", "no callable found in submission")

    raw = payload.get("input")
    args, kwargs = [], {}
    if isinstance(raw, dict):
        try:
            params = set(inspect.signature(func).parameters)
        except (TypeError, ValueError):
            params = set()
        if set(raw) != params:
            fail(result_path, "parameter_mismatch",
                 "input names %s do not match parameters %s"
                 % (sorted(raw), sorted(params)))
        kwargs = raw
    elif isinstance(raw, list):
        if len(raw) == 1 and isinstance(raw[0], list):
            raw = raw[0]
        args = raw
    else:
        args = [raw]

    tracemalloc.start()
    start = time.perf_counter()
    try:
        result = func(*args, **kwargs)
    except MemoryError:
        fail(result_path, "memory_limit_exceeded")
    except BaseException as e:
        fail(result_path, "runtime_error", "%s: %s" % (type(e).__name__, e))
    elapsed = time.perf_counter() - start
    _, peak = tracemalloc.get_traced_memory()
    tracemalloc.stop()

    write(result_path, {
        "status": "ok",
        "error": "",
        "result": result,
        "execution_time": elapsed,
        "peak_memory": peak / (1024.0 * 1024.0),
        "memory_limited": MEMORY_LIMITED,
    })


if __name__ == "__main__":
    main()
`
