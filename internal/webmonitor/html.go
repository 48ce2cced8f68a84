package webmonitor

const indexHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Zone Monitor</title>
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <link rel="stylesheet" href="/assets/monitor.css">
</head>
<body>
    <div class="app">
        <div class="header">
            <div class="title">Zone Monitor</div>
            <span class="badge" id="status-badge">Waiting for data...</span>
        </div>

        <div class="grid">
            <div class="panel">
                <div class="toolbar">
                    <button type="button" data-input="start">Draw zone</button>
                    <button type="button" data-input="cancel">Cancel</button>
                    <button type="button" data-input="save">Save</button>
                    <button type="button" data-input="retry" id="btn-retry" disabled>Retry</button>
                    <button type="button" data-input="clear">Clear zone</button>
                </div>
                <div id="video-panel">
                    <img id="stream" src="/stream" alt="Live feed">
                    <div id="capture"></div>
                </div>
                <p class="hint" id="hint"></p>
                <p class="notice" id="notice"></p>
            </div>

            <div class="panel side">
                <h2>Status</h2>
                <dl>
                    <dt>Zone</dt><dd id="zone-status">no zone</dd>
                    <dt>Mode</dt><dd id="mode">idle</dd>
                    <dt>Resolution</dt><dd id="resolution">-</dd>
                    <dt>FPS</dt><dd id="fps">-</dd>
                </dl>
                <h2>Detections</h2>
                <ul id="detections" class="list"></ul>
                <h2>Alarms</h2>
                <ul id="alarms" class="list"></ul>
                <h2>Log</h2>
                <ul id="logs" class="list log"></ul>
            </div>
        </div>
    </div>
    <script src="/assets/monitor.js"></script>
</body>
</html>
`

const monitorCSS = `body { margin: 0; font-family: sans-serif; background: #111; color: #eee; }
.app { padding: 12px; }
.header { display: flex; justify-content: space-between; align-items: center; margin-bottom: 12px; }
.title { font-size: 20px; font-weight: bold; }
.badge { padding: 4px 8px; border-radius: 4px; background: #333; font-size: 12px; }
.badge.live { background: #1a5e1a; }
.grid { display: grid; grid-template-columns: 3fr 1fr; gap: 12px; }
.panel { background: #1b1b1b; border-radius: 6px; padding: 12px; }
.toolbar { display: flex; gap: 8px; margin-bottom: 8px; }
.toolbar button { background: #2a2a2a; color: #eee; border: 1px solid #444; padding: 6px 10px; cursor: pointer; }
.toolbar button:disabled { opacity: 0.4; cursor: default; }
#video-panel { position: relative; }
#stream { width: 100%; height: auto; display: block; background: #000; }
#capture { position: absolute; inset: 0; cursor: crosshair; }
.hint { color: #ffd700; min-height: 1em; }
.notice { color: #ff8080; min-height: 1em; }
.list { list-style: none; padding: 0; margin: 0 0 12px; max-height: 180px; overflow-y: auto; font-size: 13px; }
.list li { padding: 2px 0; border-bottom: 1px solid #2a2a2a; }
.list li.in-zone { color: #ff3030; }
.log { font-family: monospace; font-size: 11px; }
dl { display: grid; grid-template-columns: auto 1fr; gap: 4px 8px; }
dt { color: #999; }
`

const monitorJS = `(function () {
    var capture = document.getElementById('capture');
    var stream = document.getElementById('stream');
    var socket = null;
    var channel = null;

    function onReply(ev) {
        var reply = JSON.parse(ev.data);
        if (!reply.ok && reply.error) { setText('notice', reply.error); }
    }

    // ?input=webrtc carries input over a data channel instead of /ws/input
    function connectDataChannel() {
        var pc = new RTCPeerConnection({ iceServers: [] });
        var dc = pc.createDataChannel('input');
        dc.onopen = function () { channel = dc; reportSize(); };
        dc.onclose = function () { channel = null; pc.close(); setTimeout(connectDataChannel, 2000); };
        dc.onmessage = onReply;
        pc.createOffer().then(function (offer) {
            return pc.setLocalDescription(offer);
        }).then(function () {
            return new Promise(function (resolve) {
                if (pc.iceGatheringState === 'complete') { resolve(); return; }
                pc.onicegatheringstatechange = function () {
                    if (pc.iceGatheringState === 'complete') { resolve(); }
                };
            });
        }).then(function () {
            return fetch('/api/webrtc/offer', {
                method: 'POST',
                headers: { 'Content-Type': 'application/json' },
                body: JSON.stringify(pc.localDescription)
            });
        }).then(function (r) {
            if (!r.ok) { throw new Error('offer rejected: ' + r.status); }
            return r.json();
        }).then(function (answer) {
            return pc.setRemoteDescription(answer);
        }).catch(function (err) {
            setText('notice', err.message);
            pc.close();
            connectInput();
        });
    }

    function connectInput() {
        var proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
        socket = new WebSocket(proto + location.host + '/ws/input');
        socket.onopen = reportSize;
        socket.onclose = function () { setTimeout(connectInput, 2000); };
        socket.onmessage = onReply;
    }

    function send(msg) {
        if (channel && channel.readyState === 'open') {
            channel.send(JSON.stringify(msg));
            return;
        }
        if (socket && socket.readyState === WebSocket.OPEN) {
            socket.send(JSON.stringify(msg));
            return;
        }
        fetch('/api/input', {
            method: 'POST',
            headers: { 'Content-Type': 'application/json' },
            body: JSON.stringify(msg)
        });
    }

    function point(ev) {
        var r = capture.getBoundingClientRect();
        return { x: ev.clientX - r.left, y: ev.clientY - r.top };
    }

    function reportSize() {
        var w = Math.round(stream.clientWidth), h = Math.round(stream.clientHeight);
        if (w > 0 && h > 0) { send({ type: 'resize', width: w, height: h }); }
    }

    capture.addEventListener('click', function (ev) {
        var p = point(ev);
        send({ type: 'click', x: p.x, y: p.y });
    });
    capture.addEventListener('dblclick', function () { send({ type: 'dblclick' }); });

    var lastMove = 0;
    capture.addEventListener('mousemove', function (ev) {
        var now = Date.now();
        if (now - lastMove < 30) { return; }
        lastMove = now;
        var p = point(ev);
        send({ type: 'move', x: p.x, y: p.y });
    });

    document.addEventListener('keydown', function (ev) {
        if (ev.key === 'Escape') { send({ type: 'escape' }); }
    });
    document.querySelectorAll('[data-input]').forEach(function (btn) {
        btn.addEventListener('click', function () { send({ type: btn.dataset.input }); });
    });
    window.addEventListener('resize', reportSize);
    stream.addEventListener('load', reportSize, { once: true });

    function setText(id, text) { document.getElementById(id).textContent = text || ''; }

    function renderList(id, items, fn) {
        var ul = document.getElementById(id);
        ul.innerHTML = '';
        items.forEach(function (item) {
            var li = document.createElement('li');
            fn(li, item);
            ul.appendChild(li);
        });
    }

    var states = new EventSource('/api/overlay/stream');
    states.onmessage = function (ev) {
        var s = JSON.parse(ev.data);
        setText('zone-status', s.zone_status);
        setText('mode', s.mode);
        setText('hint', s.hint);
        setText('notice', s.notice);
        setText('resolution', s.frame.width ? s.frame.width + 'x' + s.frame.height : '-');
        setText('fps', s.fps ? s.fps.toFixed(1) : '-');
        document.getElementById('btn-retry').disabled = !s.can_retry;
        var badge = document.getElementById('status-badge');
        badge.textContent = s.frame_seq ? 'Live' : 'Waiting for data...';
        badge.className = s.frame_seq ? 'badge live' : 'badge';
        renderList('detections', s.detections || [], function (li, d) {
            li.textContent = (d.class_name_cn || d.class_name) + ' #' + d.id + ' ' +
                Math.round(d.confidence * 100) + '% (' + Math.round(d.center.x) + ', ' + Math.round(d.center.y) + ')';
            if (d.in_zone) { li.className = 'in-zone'; }
        });
    };

    function poll() {
        fetch('/api/alarms').then(function (r) { return r.json(); }).then(function (body) {
            renderList('alarms', body.alarms || [], function (li, a) {
                li.textContent = a.time + ' ' + a.object_name + ' #' + a.track_id;
            });
        });
        fetch('/api/logs').then(function (r) { return r.json(); }).then(function (body) {
            var logs = (body.logs || []).slice(-100).reverse();
            renderList('logs', logs, function (li, l) {
                li.textContent = l.timestamp + ' [' + l.level + '] ' + l.message;
            });
        });
    }
    setInterval(poll, 2000);
    poll();
    if (new URLSearchParams(location.search).get('input') === 'webrtc') {
        connectDataChannel();
    } else {
        connectInput();
    }
})();
`
